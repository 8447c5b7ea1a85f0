// Package accessgate implements the capability checks guarding the
// governance modules: the administrator whitelist and the global
// operational (pause) flag. Other contexts consume it through their own
// AccessGate port.
package accessgate
