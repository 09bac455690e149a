package vrp

// SkillSet is an unordered set of skill identifiers.
type SkillSet map[uint32]struct{}

// NewSkillSet builds a set from a list of skill values.
func NewSkillSet(skills []uint32) SkillSet {
	if len(skills) == 0 {
		return nil
	}
	s := make(SkillSet, len(skills))
	for _, sk := range skills {
		s[sk] = struct{}{}
	}
	return s
}

// SubsetOf reports whether every skill in s is present in o.
func (s SkillSet) SubsetOf(o SkillSet) bool {
	for sk := range s {
		if _, ok := o[sk]; !ok {
			return false
		}
	}
	return true
}
