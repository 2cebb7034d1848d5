package compiler

// schemaSource describes the authoring files. Definitions stay open so
// fields the tracker does not model (display hints, badges, pack-specific
// extras) pass through untouched.
const schemaSource = `
#Int:  number | =~ #"^\s*[+-]?[0-9]+\s*$"#
#Bool: bool | string
#Codes: string | [...string]

#Map: {
	name:                       string
	location_size?:             #Int
	location_border_thickness?: #Int
	location_shape?:            "rect" | "diamond" | ""
	img?:                       string
	...
}

#MapLocation: {
	map: string
	x:   #Int
	y:   #Int
	...
}

#Section: {
	name:          string
	access_rules?: [...string]
	...
}

#Location: {
	name:           string
	sections?:      [...#Section]
	access_rules?:  [...string]
	map_locations?: [...#MapLocation]
	children?:      [...#Location]
	...
}

#Stage: {
	codes?:           #Codes
	secondary_codes?: #Codes
	inherit_codes?:   #Bool
	...
}

#Item: {
	name?:  string
	type:   "static" | "progressive" | "toggle" | "consumable" | "progressive_toggle" | "composite_toggle" | "toggle_badged"
	codes?: #Codes
	if type == "progressive" || type == "progressive_toggle" {
		stages!: [...#Stage]
	}
	...
}

maps:      [...#Map]
items:     [...#Item]
locations: [...#Location]
layouts:   {[string]: {...}}
`
