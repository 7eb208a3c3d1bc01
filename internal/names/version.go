package names

// Raw is a decoded JSON document prior to typed unmarshaling, used to
// detect which todo schema version it was written in.
type Raw = map[string]interface{}

// IsTodoAlpha1 reports whether doc has no version tag and no repeat field
// (repeat is the alpha2 field this check looks at; link is not checked).
// Alpha1 is the original, narrowest shape: title, description, context,
// due, tags, completed, active.
func IsTodoAlpha1(doc Raw) bool {
	v, hasVersion := doc["version"]
	if hasVersion && v != "" {
		return false
	}
	_, hasRepeat := doc["repeat"]
	return !hasRepeat
}

// IsTodoAlpha2 reports whether doc carries version == "alpha2", or carries
// the alpha2-only fields without the alpha3 fields.
func IsTodoAlpha2(doc Raw) bool {
	if v, ok := doc["version"].(string); ok {
		return v == "alpha2"
	}
	if IsTodoAlpha1(doc) {
		return false
	}
	_, hasExternalID := doc["externalId"]
	return !hasExternalID
}

// IsTodoAlpha3 reports whether doc is already the latest schema version.
func IsTodoAlpha3(doc Raw) bool {
	v, _ := doc["version"].(string)
	return v == "alpha3"
}

// IsLatestVersion is an alias for IsTodoAlpha3, named for callers that only
// care whether a migration is needed at all.
func IsLatestVersion(doc Raw) bool {
	return IsTodoAlpha3(doc)
}

// MigrateTodo upgrades doc in place to the alpha3 shape. It is total over
// any prior version and idempotent on an already-alpha3 document.
func MigrateTodo(doc Raw) Raw {
	if IsTodoAlpha1(doc) {
		doc = migrateAlpha1ToAlpha2(doc)
	}
	if IsTodoAlpha2(doc) {
		doc = migrateAlpha2ToAlpha3(doc)
	}
	doc["version"] = "alpha3"
	return doc
}

func migrateAlpha1ToAlpha2(doc Raw) Raw {
	if _, ok := doc["repeat"]; !ok {
		doc["repeat"] = nil
	}
	if _, ok := doc["link"]; !ok {
		doc["link"] = nil
	}
	doc["version"] = "alpha2"
	return doc
}

func migrateAlpha2ToAlpha3(doc Raw) Raw {
	if _, ok := doc["externalId"]; !ok {
		doc["externalId"] = nil
	}
	if _, ok := doc["link"]; !ok {
		doc["link"] = nil
	}
	if _, ok := doc["metadata"]; !ok {
		doc["metadata"] = map[string]interface{}{}
	}
	doc["version"] = "alpha3"
	return doc
}
