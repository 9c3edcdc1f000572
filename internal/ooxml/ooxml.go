// Package ooxml holds the small amount of Office Open XML plumbing shared by
// the DOCX and PPTX converters: part lookup inside the package ZIP and
// relationship (.rels) resolution.
package ooxml

import (
	"archive/zip"
	"encoding/xml"
	"fmt"
	"io"
	"path"
	"strings"
)

// Namespaces referenced when walking OOXML parts.
const (
	// NSPackageRels is the namespace of .rels files themselves.
	NSPackageRels = "http://schemas.openxmlformats.org/package/2006/relationships"
	// NSOfficeRel is the namespace of r:id attributes pointing at relationships.
	NSOfficeRel = "http://schemas.openxmlformats.org/officeDocument/2006/relationships"
)

// Relationship is one entry of a .rels part.
type Relationship struct {
	ID         string `xml:"Id,attr"`
	Type       string `xml:"Type,attr"`
	Target     string `xml:"Target,attr"`
	TargetMode string `xml:"TargetMode,attr"`
}

type relationships struct {
	XMLName       xml.Name       `xml:"Relationships"`
	Relationships []Relationship `xml:"Relationship"`
}

// ParseRelationships parses the .rels part at relsPath, keyed by relationship
// ID. A missing part yields an empty map, not an error; documents without
// hyperlinks or notes simply have no .rels entry to resolve.
func ParseRelationships(zr *zip.Reader, relsPath string) (map[string]Relationship, error) {
	for _, f := range zr.File {
		if f.Name != relsPath {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil, err
		}
		defer rc.Close()

		var rels relationships
		if err := xml.NewDecoder(rc).Decode(&rels); err != nil {
			return nil, fmt.Errorf("decode relationships: %w", err)
		}
		byID := make(map[string]Relationship, len(rels.Relationships))
		for _, rel := range rels.Relationships {
			byID[rel.ID] = rel
		}
		return byID, nil
	}
	return make(map[string]Relationship), nil
}

// ReadPart reads a named part from the package ZIP.
func ReadPart(zr *zip.Reader, name string) ([]byte, error) {
	for _, f := range zr.File {
		if f.Name == name {
			rc, err := f.Open()
			if err != nil {
				return nil, err
			}
			defer rc.Close()
			return io.ReadAll(rc)
		}
	}
	return nil, fmt.Errorf("part %q not found in package", name)
}

// RelsPathFor returns the .rels path for a given part.
func RelsPathFor(partPath string) string {
	dir := path.Dir(partPath)
	base := path.Base(partPath)
	if dir == "." {
		return "_rels/" + base + ".rels"
	}
	return dir + "/_rels/" + base + ".rels"
}

// ResolveTarget resolves a relationship target against the part it was
// declared on. Absolute targets are package-rooted.
func ResolveTarget(basePath, target string) string {
	if strings.HasPrefix(target, "/") {
		return strings.TrimPrefix(target, "/")
	}
	return path.Join(path.Dir(basePath), target)
}
