// Package directory defines the user-directory capability shared by the
// bridge front ends. Both the MCP tool catalog and the REST façade consume
// the same Service interface, envelope type, and validation rules, so
// upstream error mapping is written once.
package directory
