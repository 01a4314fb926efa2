// Package services implements the driving ports: the answer pipeline
// (embed, retrieve, synthesise) and the ingest orchestrator. Services
// hold the business rules and reach infrastructure only through the
// driven port interfaces.
package services
