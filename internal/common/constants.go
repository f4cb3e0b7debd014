package common

// DropAddressPrefix marks a recipient address as a filedrop slug rather than
// an email, e.g. "drop:1a2b3c4d5e6f7a8b".
const DropAddressPrefix = "drop:"
