package constants

const (
	// MAX_BATCH_ITEMS_PER_REQUEST caps the parallel arrays of batch
	// mint, burn and transfer requests
	MAX_BATCH_ITEMS_PER_REQUEST = 500

	// MAX_NAME_LENGTH caps the ledger display name
	MAX_NAME_LENGTH = 256

	// MAX_METADATA_SUFFIX_LENGTH caps a token class metadata suffix
	MAX_METADATA_SUFFIX_LENGTH = 1024
)
