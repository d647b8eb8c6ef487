// Package transfer uploads artifacts over SFTP and confirms them.
//
// # Credentials
//
// A Credential names an OpenSSH or PEM private key. Check re-validates the
// file each time it is called; Signer parses it, prompting for a
// passphrase when the key is encrypted.
//
// # Channels
//
// Open dials the endpoint, authenticates with the key, starts the SFTP
// subsystem and resolves the remote directory. Failures map to
// ErrKeyUnavailable, ErrHostUnreachable, ErrAuthFailed,
// ErrHostKeyRejected or ErrRemotePathInvalid, all fatal to a batch.
//
// Host keys follow a HostKeyPolicy:
//
//   - accept-new: record unknown hosts in known_hosts, reject changed keys
//   - strict: accept only hosts already in known_hosts
//   - insecure: accept anything, with a warning
//
// Uploads keep the base name of the artifact and write it into the
// resolved directory. Upload errors wrap ErrTransferFailed and do not
// close the channel.
//
// # Verification
//
// Verifier compares the local and remote sizes after each upload. In
// checksum mode it also re-reads the remote file and compares xxhash64
// digests.
package transfer
