package errors

const (
	msgInvalidSource          = "source record cannot be read as key/value pairs"
	msgMissingFolderStructure = "unable to determine module folder: too few parent folders"
	msgAmbiguousMaster        = "more than one parent qualifies as site grouping master"
	msgLookupMiss             = "topology lookup returned no value"
)

var (
	// ErrInvalidSource matches any InvalidSource error via errors.Is.
	ErrInvalidSource = NewError(CategoryMerge, msgInvalidSource).Build()

	// ErrMissingFolderStructure matches any MissingFolderStructure error via errors.Is.
	ErrMissingFolderStructure = NewError(CategoryPublish, msgMissingFolderStructure).Fatal().Build()

	// ErrAmbiguousMaster matches any AmbiguousMaster error via errors.Is.
	ErrAmbiguousMaster = NewError(CategoryHierarchy, msgAmbiguousMaster).Warning().Build()

	// ErrLookupMiss matches any LookupMiss error via errors.Is.
	ErrLookupMiss = NewError(CategoryTopology, msgLookupMiss).Warning().Build()
)

// InvalidSource reports a record that cannot be parsed into key/value pairs.
// It aborts the current module only and is never retried.
func InvalidSource(recordID string, cause error) *ClassifiedError {
	return WrapError(cause, CategoryMerge, msgInvalidSource).
		WithContext("record", recordID).
		Build()
}

// MissingFolderStructure reports a module record that does not sit deep
// enough in the folder tree to derive its module folder. Only moving the
// record fixes it.
func MissingFolderStructure(recordID string, depth int) *ClassifiedError {
	return NewError(CategoryPublish, msgMissingFolderStructure).
		Fatal().
		WithRetry(RetryUserAction).
		WithContext("record", recordID).
		WithContext("depth", depth).
		Build()
}

// AmbiguousMaster describes a tie during master ascent. It is logged, not returned.
func AmbiguousMaster(nodeID, siteID, picked string) *ClassifiedError {
	return NewError(CategoryHierarchy, msgAmbiguousMaster).
		Warning().
		WithContext("publication", nodeID).
		WithContext("site_id", siteID).
		WithContext("picked", picked).
		Build()
}

// LookupMiss describes an empty topology answer. It is logged, not returned.
func LookupMiss(what string) *ClassifiedError {
	return NewError(CategoryTopology, msgLookupMiss).
		Warning().
		WithContext("lookup", what).
		Build()
}
