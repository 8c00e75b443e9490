package rows

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"

	"github.com/dbsmedya/formrows/internal/schema"
)

// Step is one level of ancestry: a schema field and, for the root and for
// repeat instances, the iteration value that distinguishes it from its
// siblings.
type Step struct {
	Field     *schema.Field
	Iteration string
	Live      bool
}

// HashID derives the identity of the row at the end of ancestry.
//
// Each step contributes "<name>#<iteration>" ("<name>#" without a live
// iteration); steps are joined with "|" and hashed with SHA-256, hex encoded.
// Existing exports reference these ids, so the scheme must not change.
func HashID(ancestry []Step) string {
	var b strings.Builder
	for i, step := range ancestry {
		if i > 0 {
			b.WriteByte('|')
		}
		b.WriteString(step.Field.Name)
		b.WriteByte('#')
		if step.Live {
			b.WriteString(step.Iteration)
		}
	}
	sum := sha256.Sum256([]byte(b.String()))
	return hex.EncodeToString(sum[:])
}
