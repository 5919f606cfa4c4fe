package classify

import "github.com/nao1215/ransomwatch/internal/model"

// Victims returns the victims relevant to country, in source order,
// annotated with their matched keywords. Nil entries are skipped.
func Victims(victims []*model.Victim, country model.Country) []*model.ClassifiedVictim {
	matched := make([]*model.ClassifiedVictim, 0)
	for _, v := range victims {
		if v == nil {
			continue
		}
		if res := Classify(v, country); res.IsMatch {
			matched = append(matched, &model.ClassifiedVictim{
				Victim:          v,
				MatchedKeywords: res.MatchedKeywords,
			})
		}
	}
	return matched
}

// Attacks returns the attacks relevant to country, in source order,
// annotated with their matched keywords. Nil entries are skipped.
func Attacks(attacks []*model.Attack, country model.Country) []*model.ClassifiedAttack {
	matched := make([]*model.ClassifiedAttack, 0)
	for _, a := range attacks {
		if a == nil {
			continue
		}
		if res := Classify(a, country); res.IsMatch {
			matched = append(matched, &model.ClassifiedAttack{
				Attack:          a,
				MatchedKeywords: res.MatchedKeywords,
			})
		}
	}
	return matched
}
