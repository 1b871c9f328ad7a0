package filter

// MergeExternal applies an externally supplied patch (e.g. a sidebar status
// pick) on top of the local filter. Fields absent from the patch keep their
// local value, including edits still waiting for the debounce window; fields
// present in the patch win, and an absent patch value clears the field.
// Unknown fields in the patch are ignored.
func MergeExternal(local Filter, patch Patch) Filter {
	out := local.Clone()
	for field, v := range patch {
		if !field.Known() {
			continue
		}
		out.Set(field, Normalize(field, v))
	}
	return out
}
