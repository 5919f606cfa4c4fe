package model

// Victim is a disclosed ransomware victim post.
// Victim, Group and AttackDate are expected on every entry; everything else
// may be missing and is then left empty rather than defaulted.
type Victim struct {
	// Victim is the victim organization name.
	Victim string `json:"victim"`

	// Group is the ransomware group that claimed the attack.
	Group string `json:"group"`

	// AttackDate is free-form and kept as delivered.
	AttackDate string `json:"attackdate"`

	Country     string `json:"country,omitempty"`
	Sector      string `json:"sector,omitempty"`
	Description string `json:"description,omitempty"`

	// Website may lack a scheme (e.g. "example.com.eg").
	Website string `json:"website,omitempty"`

	Published   string `json:"published,omitempty"`
	PostTitle   string `json:"post_title,omitempty"` //nolint:tagliatelle // feed format
	Infostealer string `json:"infostealer,omitempty"`

	// Screenshot is a URL to the leak-site screenshot.
	Screenshot string `json:"screenshot,omitempty"`
}

// Identity returns the (victim, attackdate) pair.
func (v *Victim) Identity() Identity {
	return Identity{Name: v.Victim, AttackDate: v.AttackDate}
}

// Fields returns the non-empty scalar fields of the victim.
func (v *Victim) Fields() []Field {
	fields := make([]Field, 0, 11)
	fields = appendField(fields, FieldVictim, v.Victim)
	fields = appendField(fields, FieldGroup, v.Group)
	fields = appendField(fields, FieldAttackDate, v.AttackDate)
	fields = appendField(fields, FieldCountry, v.Country)
	fields = appendField(fields, FieldSector, v.Sector)
	fields = appendField(fields, FieldDescription, v.Description)
	fields = appendField(fields, FieldWebsite, v.Website)
	fields = appendField(fields, FieldPublished, v.Published)
	fields = appendField(fields, FieldPostTitle, v.PostTitle)
	fields = appendField(fields, FieldInfostealer, v.Infostealer)
	fields = appendField(fields, FieldScreenshot, v.Screenshot)
	return fields
}

// Lookup returns the named field value.
func (v *Victim) Lookup(name string) string {
	return lookupField(v.Fields(), name)
}

// UnmarshalJSON decodes a feed entry, coercing scalar values to text.
func (v *Victim) UnmarshalJSON(data []byte) error {
	var decoded Victim
	err := decodeText(data, map[string]*string{
		FieldVictim:      &decoded.Victim,
		FieldGroup:       &decoded.Group,
		FieldAttackDate:  &decoded.AttackDate,
		FieldCountry:     &decoded.Country,
		FieldSector:      &decoded.Sector,
		FieldDescription: &decoded.Description,
		FieldWebsite:     &decoded.Website,
		FieldPublished:   &decoded.Published,
		FieldPostTitle:   &decoded.PostTitle,
		FieldInfostealer: &decoded.Infostealer,
		FieldScreenshot:  &decoded.Screenshot,
	})
	if err != nil {
		return err
	}
	*v = decoded
	return nil
}

// ClassifiedVictim is a victim that matched a target country,
// annotated with the labels of the signals that matched.
type ClassifiedVictim struct {
	*Victim

	// MatchedKeywords lists the matched signals in evaluation order.
	MatchedKeywords []string `json:"matchedKeywords"` //nolint:tagliatelle // dashboard format
}

// Fields returns the victim fields followed by the matched keywords.
func (cv *ClassifiedVictim) Fields() []Field {
	return appendKeywords(cv.Victim.Fields(), cv.MatchedKeywords)
}

// Lookup returns the named field value.
func (cv *ClassifiedVictim) Lookup(name string) string {
	return lookupField(cv.Fields(), name)
}

// UnmarshalJSON decodes the flattened form written by encoding/json.
func (cv *ClassifiedVictim) UnmarshalJSON(data []byte) error {
	var v Victim
	if err := v.UnmarshalJSON(data); err != nil {
		return err
	}
	keywords, err := decodeKeywords(data)
	if err != nil {
		return err
	}
	*cv = ClassifiedVictim{Victim: &v, MatchedKeywords: keywords}
	return nil
}
