/*
Package registry tracks connected downstream consumers.

Each consumer (summary view, scoped sub-view, mobile app) registers on
connect and pings to refresh its last-activity timestamp. The health monitor
purges connections idle for longer than the staleness window; the WebSocket
gateway unregisters explicitly on disconnect.
*/
package registry
