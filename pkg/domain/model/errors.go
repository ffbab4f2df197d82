package model

import "github.com/m-mizutani/goerr/v2"

// ErrNotFound is returned by GitHub clients when the requested resource does not exist
var ErrNotFound = goerr.New("resource not found")
