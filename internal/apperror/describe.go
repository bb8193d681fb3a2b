package apperror

// Description is the user-facing presentation of a kind. These are display
// data only; the kind itself is the contract.
type Description struct {
	Title   string `json:"title"`
	Message string `json:"message"`
	Action  string `json:"action"`
}

var descriptions = map[Kind]Description{
	KindPaymentRequired: {
		Title:   "Credits exhausted",
		Message: "The face-swap provider rejected the request because the account is out of credits.",
		Action:  "Top up the provider account and try again.",
	},
	KindAuthError: {
		Title:   "Authentication failed",
		Message: "The provider API token is missing or invalid.",
		Action:  "Check the configured API token.",
	},
	KindRateLimit: {
		Title:   "Too many requests",
		Message: "The provider is rate limiting this account.",
		Action:  "Wait a moment before trying again.",
	},
	KindNetworkError: {
		Title:   "Network problem",
		Message: "A network request could not be completed.",
		Action:  "Check your connection and retry.",
	},
	KindFileNotFound: {
		Title:   "File not found",
		Message: "The requested media could not be found.",
		Action:  "Pick a different GIF or re-upload the photo.",
	},
	KindAccessDenied: {
		Title:   "Access denied",
		Message: "Access to the requested resource was refused.",
		Action:  "Verify the URL is publicly reachable.",
	},
	KindFileTooLarge: {
		Title:   "File too large",
		Message: "The media exceeds the allowed size.",
		Action:  "Use a smaller GIF or photo.",
	},
	KindInvalidFormat: {
		Title:   "Unsupported format",
		Message: "The file is not in a supported image format.",
		Action:  "Use a JPEG, PNG, WebP or GIF image.",
	},
	KindCorruptedFile: {
		Title:   "Corrupted file",
		Message: "The file could not be decoded.",
		Action:  "Try a different file.",
	},
	KindMemoryError: {
		Title:   "Out of resources",
		Message: "Processing ran out of memory or storage.",
		Action:  "Try a smaller GIF.",
	},
	KindAnimationError: {
		Title:   "Animation failed",
		Message: "The animation could not be processed or re-encoded.",
		Action:  "Try a different GIF, or download the unconverted result.",
	},
	KindTimeoutError: {
		Title:   "Timed out",
		Message: "The operation took too long to complete.",
		Action:  "Try again; the provider may be under load.",
	},
	KindModelError: {
		Title:   "Swap failed",
		Message: "The face-swap model could not produce a result for this pair.",
		Action:  "Try a clearer face photo or a different GIF.",
	},
	KindBadRequest: {
		Title:   "Invalid request",
		Message: "The request was malformed or missing required fields.",
		Action:  "Check the face image and GIF selection.",
	},
	KindNotFound: {
		Title:   "Not found",
		Message: "The requested item does not exist.",
		Action:  "Check the id and try again.",
	},
	KindUnknown: {
		Title:   "Something went wrong",
		Message: "An unexpected error occurred.",
		Action:  "Try again; if it keeps failing, report it.",
	},
}

// Describe returns the presentation data for a kind. Total over all kinds;
// anything unrecognized gets the unknown_error description.
func Describe(k Kind) Description {
	if d, ok := descriptions[k]; ok {
		return d
	}
	return descriptions[KindUnknown]
}
