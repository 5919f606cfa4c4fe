package model

// Attack is a disclosed attack event.
// Unlike Victim, the country is always expected and the victim name may
// not be known yet.
type Attack struct {
	Group      string `json:"group"`
	AttackDate string `json:"attackdate"`
	Country    string `json:"country"`

	// Victim is empty when the attack has not been attributed to a victim.
	Victim string `json:"victim,omitempty"`

	Sector      string `json:"sector,omitempty"`
	Description string `json:"description,omitempty"`
	Website     string `json:"website,omitempty"`
	Published   string `json:"published,omitempty"`
	PostTitle   string `json:"post_title,omitempty"` //nolint:tagliatelle // feed format

	// Activity is the sector activity tag reported by the feed.
	Activity string `json:"activity,omitempty"`
}

// Identity returns the (victim, attackdate) pair. The name part is empty
// for attacks without a named victim.
func (a *Attack) Identity() Identity {
	return Identity{Name: a.Victim, AttackDate: a.AttackDate}
}

// Fields returns the non-empty scalar fields of the attack.
func (a *Attack) Fields() []Field {
	fields := make([]Field, 0, 10)
	fields = appendField(fields, FieldGroup, a.Group)
	fields = appendField(fields, FieldAttackDate, a.AttackDate)
	fields = appendField(fields, FieldCountry, a.Country)
	fields = appendField(fields, FieldVictim, a.Victim)
	fields = appendField(fields, FieldSector, a.Sector)
	fields = appendField(fields, FieldDescription, a.Description)
	fields = appendField(fields, FieldWebsite, a.Website)
	fields = appendField(fields, FieldPublished, a.Published)
	fields = appendField(fields, FieldPostTitle, a.PostTitle)
	fields = appendField(fields, FieldActivity, a.Activity)
	return fields
}

// Lookup returns the named field value.
func (a *Attack) Lookup(name string) string {
	return lookupField(a.Fields(), name)
}

// UnmarshalJSON decodes a feed entry, coercing scalar values to text.
func (a *Attack) UnmarshalJSON(data []byte) error {
	var decoded Attack
	err := decodeText(data, map[string]*string{
		FieldGroup:       &decoded.Group,
		FieldAttackDate:  &decoded.AttackDate,
		FieldCountry:     &decoded.Country,
		FieldVictim:      &decoded.Victim,
		FieldSector:      &decoded.Sector,
		FieldDescription: &decoded.Description,
		FieldWebsite:     &decoded.Website,
		FieldPublished:   &decoded.Published,
		FieldPostTitle:   &decoded.PostTitle,
		FieldActivity:    &decoded.Activity,
	})
	if err != nil {
		return err
	}
	*a = decoded
	return nil
}

// ClassifiedAttack is an attack that matched a target country.
type ClassifiedAttack struct {
	*Attack

	MatchedKeywords []string `json:"matchedKeywords"` //nolint:tagliatelle // dashboard format
}

// Fields returns the attack fields followed by the matched keywords.
func (ca *ClassifiedAttack) Fields() []Field {
	return appendKeywords(ca.Attack.Fields(), ca.MatchedKeywords)
}

// Lookup returns the named field value.
func (ca *ClassifiedAttack) Lookup(name string) string {
	return lookupField(ca.Fields(), name)
}

// UnmarshalJSON decodes the flattened form written by encoding/json.
func (ca *ClassifiedAttack) UnmarshalJSON(data []byte) error {
	var a Attack
	if err := a.UnmarshalJSON(data); err != nil {
		return err
	}
	keywords, err := decodeKeywords(data)
	if err != nil {
		return err
	}
	*ca = ClassifiedAttack{Attack: &a, MatchedKeywords: keywords}
	return nil
}
