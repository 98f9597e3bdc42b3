package model

import "errors"

// Model package resolution errors
var (
	ErrNotInstalled   = errors.New("model package is not installed")
	ErrInvalidName    = errors.New("invalid model package name")
	ErrInvalidVersion = errors.New("invalid model package version")
)

// Download and verification errors
var (
	ErrDownloadFailed   = errors.New("model package download failed")
	ErrChecksumMismatch = errors.New("model package checksum mismatch")
	ErrInvalidManifest  = errors.New("invalid model package manifest")
	ErrMissingDataFile  = errors.New("model package data file missing")
	ErrUnsafeArchive    = errors.New("model package archive contains unsafe paths")
)
