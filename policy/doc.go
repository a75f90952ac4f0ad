// Package policy defines the admission policy applied by the scheduler before
// a user job may be staged for execution. Realtime jobs are never subject to
// admission.
package policy
