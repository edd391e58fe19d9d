package main

import "github.com/flowdag/flowdag/internal/domain"

// exitCodeFor maps an error to the process exit code §6 documents: 0 on
// success (never reached here, since this is only called on error), 2
// for an error carrying the ErrLoad code (a malformed or invalid workflow
// document), 1 for every other failure, including a node failing at
// runtime and CLI usage errors.
func exitCodeFor(err error) int {
	if err == nil {
		return 0
	}
	if code, ok := domain.Code(err); ok && code == domain.ErrLoad {
		return 2
	}
	return 1
}
