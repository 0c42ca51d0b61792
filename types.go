package binkit

import (
	"github.com/meigma/binkit/dedup"
	"github.com/meigma/binkit/hashing"
	"github.com/meigma/binkit/internal/bintype"
	"github.com/meigma/binkit/signature"
	"github.com/meigma/binkit/sink"
	"github.com/meigma/binkit/source"
	"github.com/meigma/binkit/splice"
)

// --- Re-exports ---

// Entry is one decoded archive member.
type Entry = bintype.Entry

// EntryKind classifies an archive member.
type EntryKind = bintype.Kind

// Entry kinds.
const (
	KindFile        = bintype.KindFile
	KindDirectory   = bintype.KindDirectory
	KindUnsupported = bintype.KindUnsupported
)

// Algorithm selects a hash function.
type Algorithm = hashing.Algorithm

// Hash algorithms.
const (
	SHA256 = hashing.SHA256
	SHA1   = hashing.SHA1
	MD5    = hashing.MD5
	BLAKE3 = hashing.BLAKE3
)

// Digest is an algorithm-tagged content digest.
type Digest = hashing.Digest

// Group is a set of byte-identical files.
type Group = dedup.Group

// Comparison is the result of comparing two files.
type Comparison = dedup.Comparison

// Part describes one piece written by Split.
type Part = splice.Part

// Signature is a detection verdict.
type Signature = signature.Result

// Ref is a named, re-openable byte source.
type Ref = source.Ref

// Sink receives named outputs.
type Sink = sink.Sink

// ParseAlgorithm parses an algorithm name such as "sha256" or "blake3".
var ParseAlgorithm = hashing.ParseAlgorithm

// ParseDigest parses an "algorithm:hex" digest string.
var ParseDigest = hashing.Parse
