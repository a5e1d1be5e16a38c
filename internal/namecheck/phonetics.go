package namecheck

import "strings"

// Letter pairs that do not occur in plausible English names.
const impossibleBigrams = `
bq cj cv cx dx fq fx gq gx hx jq jx
kq kx mx px qb qc qd qf qg qh qj qk
ql qm qn qp qr qs qt qv qw qx qy qz
sx vb vf vh vj vm vp vq vt vw vx wx
xj xx zx`

// CheckPhonetics reports whether name is free of implausible letter pairs.
// It is independent of Validate and does not affect the confidence score.
func (v *Validator) CheckPhonetics(name string) bool {
	lower := strings.ToLower(name)
	for _, pair := range v.bigrams {
		if strings.Contains(lower, pair) {
			return false
		}
	}
	return true
}

// CheckPhonetics runs the phonetic check with the default Validator.
func CheckPhonetics(name string) bool {
	return Default().CheckPhonetics(name)
}
