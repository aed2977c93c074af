package odata

import (
	"encoding/xml"

	"github.com/ericfisherdev/dynabridge/internal/domain/model"
)

// Wire structs for the CSDL metadata document. Element names are matched by
// local name, so the edmx/edm namespace prefixes used by the service do not
// need to be spelled out.

type csdlDocument struct {
	DataServices csdlDataServices `xml:"DataServices"`
}

type csdlDataServices struct {
	Schemas []csdlSchema `xml:"Schema"`
}

type csdlSchema struct {
	Namespace   string          `xml:"Namespace,attr"`
	EntityTypes []csdlType      `xml:"EntityType"`
	Containers  []csdlContainer `xml:"EntityContainer"`
}

type csdlType struct {
	Name       string         `xml:"Name,attr"`
	Keys       []csdlKeyRef   `xml:"Key>PropertyRef"`
	Properties []csdlProperty `xml:"Property"`
}

type csdlKeyRef struct {
	Name string `xml:"Name,attr"`
}

type csdlProperty struct {
	Name string `xml:"Name,attr"`
	Type string `xml:"Type,attr"`
}

type csdlContainer struct {
	EntitySets []csdlEntitySet `xml:"EntitySet"`
}

type csdlEntitySet struct {
	Name       string `xml:"Name,attr"`
	EntityType string `xml:"EntityType,attr"`
}

// parseMetadata extracts every entity type's field schema and the container's
// entity-set index from a CSDL document in a single pass. A document with no
// schema sections parses to empty maps; only malformed XML is an error.
func parseMetadata(raw []byte) (*model.ServiceMetadata, error) {
	var doc csdlDocument
	if err := xml.Unmarshal(raw, &doc); err != nil {
		return nil, err
	}

	meta := &model.ServiceMetadata{
		Types: make(map[string]model.EntityTypeSchema),
		Sets:  make(map[string]string),
	}

	for _, schema := range doc.DataServices.Schemas {
		for _, et := range schema.EntityTypes {
			qualified := et.Name
			if schema.Namespace != "" {
				qualified = schema.Namespace + "." + et.Name
			}

			keys := make(map[string]bool, len(et.Keys))
			for _, ref := range et.Keys {
				keys[ref.Name] = true
			}

			fields := make([]model.Field, 0, len(et.Properties))
			for _, prop := range et.Properties {
				fields = append(fields, model.Field{
					Name:  prop.Name,
					Type:  model.ParseFieldType(prop.Type),
					IsKey: keys[prop.Name],
				})
			}

			meta.Types[qualified] = model.EntityTypeSchema{
				TypeName: qualified,
				Fields:   fields,
			}
		}

		for _, container := range schema.Containers {
			for _, set := range container.EntitySets {
				meta.Sets[set.Name] = set.EntityType
			}
		}
	}

	return meta, nil
}
