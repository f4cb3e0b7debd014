// Package cryptox implements the client-side cryptography for Portalsend:
// the password KDF, RSA-OAEP key pairs with a JWK-style interchange encoding,
// the AES-GCM private-key vault, and the AES-CBC file cipher.
//
// All operations here run on the client. The server only ever stores public
// keys, wrapped private keys and ciphertext; nothing in this package is
// reachable from a code path that could hand plaintext or an unwrapped key
// to the server.
//
// A file's content and its display name are encrypted with the same key and
// the same 16-byte IV. That key/IV pair is scoped to exactly one file and is
// never reused across files.
package cryptox
