// Package dashboard builds the chart series shown on the admin dashboard:
// daily spend over a trailing window, spend by category and accounts by role.
//
// The Resource API's /reports/daily endpoint answers in one of several shapes
// depending on deployment. ParseDailyTotals recognises each known shape with
// a named parser; when none matches, Service falls back to aggregating the
// caller's purchases client-side.
package dashboard
