/*
Package vaulttest provides mocks and helpers for testing code that
builds on the vault framework. All implementations here are kept
minimal, deterministic where possible and safe to share between tests.
*/
package vaulttest
