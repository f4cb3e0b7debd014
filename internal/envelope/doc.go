// Package envelope implements the client-side envelope-encryption protocol:
// sealing a file for a set of recipients (one fresh symmetric key, fanned out
// as one RSA-wrapped copy per recipient) and opening a received file (unwrap
// private key, recover the shared key, download and decrypt).
//
// The package talks to the outside world only through the Directory,
// TransferStore and BlobStore interfaces; server, transport and storage
// details stay behind them. Every string crossing those boundaries that
// carries binary material is base64 encoded.
package envelope
