// Package io reads and writes knitting pattern sets in JSON and YAML.
//
// # Format
//
// A pattern set is an object with a fixed "type", a version, optional
// instruction definitions and a list of patterns:
//
//	{
//	  "type": "knitting pattern",
//	  "version": "0.1",
//	  "instructions": [{"type": "bobble", "number of consumed meshes": 1}],
//	  "patterns": [{
//	    "id": "scarf",
//	    "name": "Striped scarf",
//	    "rows": [
//	      {"id": 1, "color": "red", "instructions": [{}, {}, {"type": "purl"}]},
//	      {"id": 2, "instructions": [{}, {"type": "k2tog"}]}
//	    ],
//	    "connections": [
//	      {"from": {"id": 1, "start": 0}, "to": {"id": 2, "start": 0}, "meshes": 3}
//	    ]
//	  }]
//	}
//
// Every key of a row other than "id" and "instructions" is a default for
// the row's instructions. Connections link consecutive produced meshes of
// the "from" row to consecutive consumed meshes of the "to" row; "start"
// defaults to 0 and "meshes" to as many as both rows have left.
//
// # Reading
//
// [ReadJSON] and [ReadYAML] decode from an io.Reader; [Import] picks the
// decoder from the file extension and also accepts PNG images through
// [FromImage]. Structural problems fail with PARSE_ERROR naming the
// offending pattern, row or connection.
//
// # Writing
//
// [WriteJSON] and [WriteYAML] encode a [PatternSet] back to the same
// format. Connections are recovered from the mesh links, so a set read,
// edited and written out re-reads to an equivalent set.
package io
