package envelope

// Stage is one state of the receive pipeline. The sequence is
//
//	idle → fetching_keys → decrypting_private_key →
//	  failed                       (wrong password; terminal per attempt)
//	  decrypting_shared_key → downloading_ciphertext → decrypting_file → done
//
// A user retrying with a new password starts a new attempt from
// decrypting_private_key.
type Stage string

const (
	StageIdle                  Stage = "idle"
	StageFetchingKeys          Stage = "fetching_keys"
	StageDecryptingPrivateKey  Stage = "decrypting_private_key"
	StageFailed                Stage = "failed"
	StageDecryptingSharedKey   Stage = "decrypting_shared_key"
	StageDownloadingCiphertext Stage = "downloading_ciphertext"
	StageDecryptingFile        Stage = "decrypting_file"
	StageDone                  Stage = "done"
)

// StageFunc observes pipeline transitions. It is called synchronously from
// the pipeline goroutine; a UI layer subscribing here should hand off
// quickly.
type StageFunc func(Stage)
