package extract

import (
	"fmt"
	"hash/fnv"

	"github.com/japaniel/mythos/pkg/corpus"
)

// Semver is the extractor release; the weight table hash is appended to it.
const Semver = "1.4.0"

// Weights is the completeness table. Identity weighs 40, attributes up to
// 20, the mythology section 25 and relationships 15.
type Weights struct {
	ID        int
	Name      int
	Mythology int
	Type      int

	PerAttribute int
	AttributeCap int

	Description int
	KeyMyths    int
	Sources     int

	Family        int
	AlliesEnemies int
	Parallels     int
}

// DefaultWeights sums to 100.
var DefaultWeights = Weights{
	ID: 10, Name: 10, Mythology: 10, Type: 10,
	PerAttribute: 4, AttributeCap: 20,
	Description: 10, KeyMyths: 10, Sources: 5,
	Family: 5, AlliesEnemies: 5, Parallels: 5,
}

// Score is a pure function of which fields of r are populated, clamped to
// [0,100].
func (w Weights) Score(r *corpus.EntityRecord) int {
	score := 0
	add := func(ok bool, pts int) {
		if ok {
			score += pts
		}
	}
	add(r.ID != "", w.ID)
	add(r.Name != "", w.Name)
	add(r.Mythology.Valid(), w.Mythology)
	add(r.Type.Valid(), w.Type)

	attrs := 0
	for _, v := range r.Attributes {
		if !v.IsEmpty() {
			attrs++
		}
	}
	score += min(attrs*w.PerAttribute, w.AttributeCap)

	add(r.LongDescription != "", w.Description)
	add(len(r.KeyMyths) > 0, w.KeyMyths)
	add(len(r.Sources) > 0, w.Sources)

	add(r.Relationships.HasFamily(), w.Family)
	add(r.Relationships.HasAlliesEnemies(), w.AlliesEnemies)
	add(r.Relationships.HasParallels(), w.Parallels)

	return max(0, min(score, 100))
}

// VersionString is "<semver>+w<fnv32a of the weight table>", so weight
// changes show up in every record's extractorVersion.
func VersionString(w Weights) string {
	h := fnv.New32a()
	fmt.Fprintf(h, "%+v", w)
	return fmt.Sprintf("%s+w%08x", Semver, h.Sum32())
}
