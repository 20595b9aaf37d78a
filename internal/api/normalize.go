// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"strconv"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

// normalizeIDs copies "_id" into "id" wherever "id" is missing, for a single
// object, an array of objects, or either of those under a "data" envelope.
func normalizeIDs(raw []byte) []byte {
	body := gjson.ParseBytes(raw)

	switch {
	case body.IsArray():
		return normalizeArray(raw, "")
	case body.IsObject():
		out := normalizeObject(raw, "", body)
		data := body.Get("data")
		switch {
		case data.IsArray():
			out = normalizeArray(out, "data.")
		case data.IsObject():
			out = normalizeObject(out, "data.", data)
		}
		return out
	default:
		return raw
	}
}

func normalizeArray(raw []byte, prefix string) []byte {
	out := raw
	var items []gjson.Result
	if prefix == "" {
		items = gjson.ParseBytes(raw).Array()
	} else {
		items = gjson.GetBytes(raw, prefix[:len(prefix)-1]).Array()
	}
	for i, item := range items {
		out = normalizeObject(out, prefix+strconv.Itoa(i)+".", item)
	}
	return out
}

func normalizeObject(raw []byte, prefix string, obj gjson.Result) []byte {
	if !needsID(obj) {
		return raw
	}
	legacy, ok := legacyID(obj.Get("_id"))
	if !ok {
		return raw
	}
	out, err := sjson.SetRawBytes(raw, prefix+"id", legacy)
	if err != nil {
		return raw
	}
	return out
}

// legacyID returns "_id" as raw JSON when it is a string or a number.
// Extended-JSON object ids ({"$oid": "..."}) are unwrapped; any other shape
// is not usable as an id.
func legacyID(v gjson.Result) ([]byte, bool) {
	switch {
	case v.Type == gjson.String && v.Str != "", v.Type == gjson.Number:
		return []byte(v.Raw), true
	case v.IsObject():
		var oid gjson.Result
		v.ForEach(func(key, value gjson.Result) bool {
			if key.Str == "$oid" {
				oid = value
				return false
			}
			return true
		})
		if oid.Type == gjson.String && oid.Str != "" {
			return []byte(oid.Raw), true
		}
	}
	return nil, false
}

func needsID(obj gjson.Result) bool {
	if !obj.IsObject() {
		return false
	}
	id := obj.Get("id")
	return !id.Exists() || id.Type == gjson.Null || (id.Type == gjson.String && id.Str == "")
}
