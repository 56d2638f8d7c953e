/*
Package client provides a small HTTP client for CrewSync's operational API.

The CLI's status, trigger, and sync subcommands use it to talk to a running
instance's gateway: fetching the computed sync status, reporting manual
entity changes, forcing a full resynchronization, and running the
consistency check.
*/
package client
