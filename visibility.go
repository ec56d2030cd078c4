package formsg

// Visible decides whether messages should be shown for the given snapshot.
//
// The when policy picks the gating flag; a submit attempt reveals messages
// regardless of it. Pending asynchronous validation always hides messages.
// The unset policy behaves as WhenTouched and unrecognized policies behave as
// WhenAlways.
func Visible(when When, touched, dirty, submitted bool, status Status) bool {
	var condition bool
	switch when.orDefault() {
	case WhenTouched:
		condition = touched
	case WhenDirty:
		condition = dirty
	default:
		condition = true
	}
	return (condition || submitted) && status != StatusPending
}
