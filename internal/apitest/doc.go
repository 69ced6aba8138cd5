// Package apitest is an in-process fake of the remote purchase-tracking API
// (Identity Service, purchases, admin users, daily reports) built on gin.
//
// It backs the package tests and the sessionctl fakeapi command. Response
// shapes are switchable so clients can be exercised against every variant
// they claim to accept.
package apitest
