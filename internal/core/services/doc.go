// Package services implements the core business logic behind the
// driving ports: document lifecycle, the annotation collection with its
// selection and highlight state, and export/import.
package services
