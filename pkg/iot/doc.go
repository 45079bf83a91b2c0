// Package iot is a thin typed API over the "system" module of plugs.
//
// It covers the calls every plug model answers the same way; per-model
// schemas (energy meters, schedules, bulbs) are left to callers, who can
// issue them through client.Call with their own result types.
package iot
