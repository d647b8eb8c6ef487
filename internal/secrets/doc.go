// Package secrets encrypts staged files to a recipient's OpenPGP key.
//
// # Recipient Keys
//
// LoadRecipient parses an ASCII-armored public key ring and checks that
// every key in it can encrypt. Anything else is ErrKeyInvalid, which the
// pipeline treats as fatal before any file is touched.
//
// # Artifacts
//
// EncryptFile reads the whole source file, requires it to be UTF-8 text,
// and writes one armored "PGP MESSAGE" per source:
//
//	exports/a.csv  ->  encrypted/a.csv.pgp
//
// The output directory is created on demand and artifacts are written
// with mode 0600. Sources are never modified. Read and write failures
// wrap ErrReadFailed and ErrWriteFailed and only affect that file.
//
// # Eligibility
//
// IsEligible, Admitter, ResolveFiles and ListEligible decide which files
// can be staged: regular files whose name ends with the configured
// extension, matched case-insensitively. ResolveFiles accepts doublestar
// globs such as "**/*.csv".
package secrets
