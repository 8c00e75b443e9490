package rows

import "strings"

// NavigationLink builds the resource path of the collection at the end of
// ancestry, e.g. "Submissions('uuid:1')/household('3f2a…')/pets".
//
// Steps without a live iteration contribute their bare name. The root step
// is keyed by its literal iteration value (the instance id); deeper live
// steps are keyed by the HashID of the ancestry up to and including them.
func NavigationLink(ancestry []Step) string {
	parts := make([]string, len(ancestry))
	for i, step := range ancestry {
		switch {
		case !step.Live:
			parts[i] = step.Field.Name
		case i == 0:
			parts[i] = step.Field.Name + "('" + step.Iteration + "')"
		default:
			parts[i] = step.Field.Name + "('" + HashID(ancestry[:i+1]) + "')"
		}
	}
	return strings.Join(parts, "/")
}
