package fmu

import (
	"bytes"
	"encoding/json"
	"encoding/xml"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/tidwall/jsonc"
	"gopkg.in/yaml.v3"
)

// xmlModelDescription mirrors the subset of an FMI 2.0 modelDescription.xml
// that co-simulation needs.
type xmlModelDescription struct {
	XMLName      xml.Name            `xml:"fmiModelDescription"`
	FMIVersion   string              `xml:"fmiVersion,attr"`
	ModelName    string              `xml:"modelName,attr"`
	GUID         string              `xml:"guid,attr"`
	Description  string              `xml:"description,attr"`
	CoSimulation *xmlCoSimulation    `xml:"CoSimulation"`
	Variables    []xmlScalarVariable `xml:"ModelVariables>ScalarVariable"`
}

type xmlCoSimulation struct {
	ModelIdentifier string `xml:"modelIdentifier,attr"`
}

type xmlScalarVariable struct {
	Name           string    `xml:"name,attr"`
	ValueReference uint32    `xml:"valueReference,attr"`
	Causality      string    `xml:"causality,attr"`
	Description    string    `xml:"description,attr"`
	Boolean        *xmlStart `xml:"Boolean"`
	Integer        *xmlStart `xml:"Integer"`
	Enumeration    *xmlStart `xml:"Enumeration"`
	Real           *xmlStart `xml:"Real"`
	String         *xmlStart `xml:"String"`
}

type xmlStart struct {
	Start string `xml:"start,attr"`
}

func parseXML(data []byte, source string) (*Descriptor, error) {
	var md xmlModelDescription
	if err := xml.Unmarshal(data, &md); err != nil {
		return nil, fmt.Errorf("parsing model description: %w", err)
	}
	if md.CoSimulation == nil {
		return nil, fmt.Errorf("model description %q has no CoSimulation element", md.ModelName)
	}
	d := &Descriptor{
		FMIVersion:      md.FMIVersion,
		ModelName:       md.ModelName,
		GUID:            md.GUID,
		ModelIdentifier: md.CoSimulation.ModelIdentifier,
		Description:     md.Description,
		Source:          source,
	}
	for _, sv := range md.Variables {
		v := Variable{
			Name:           sv.Name,
			ValueReference: sv.ValueReference,
			Causality:      sv.Causality,
			Description:    sv.Description,
		}
		switch {
		case sv.Boolean != nil:
			v.Type, v.Start = "bool", sv.Boolean.Start
		case sv.Integer != nil:
			v.Type, v.Start = "int", sv.Integer.Start
		case sv.Enumeration != nil:
			v.Type, v.Start = "int", sv.Enumeration.Start
		default:
			// Real and String signals never cross the pipeline.
			logrus.Debugf("%s: skipping non-discrete variable %q", d.ModelIdentifier, sv.Name)
			continue
		}
		d.Variables = append(d.Variables, v)
	}
	return d, nil
}

func parseYAML(data []byte, source string) (*Descriptor, error) {
	var d Descriptor
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&d); err != nil {
		return nil, fmt.Errorf("parsing descriptor YAML: %w", err)
	}
	d.Source = source
	return &d, nil
}

func parseJSON(data []byte, source string) (*Descriptor, error) {
	var d Descriptor
	decoder := json.NewDecoder(bytes.NewReader(jsonc.ToJSON(data)))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&d); err != nil {
		return nil, fmt.Errorf("parsing descriptor JSON: %w", err)
	}
	d.Source = source
	return &d, nil
}

// Parse decodes a descriptor document, choosing the format from filename's
// extension, and validates it.
func Parse(filename string, data []byte) (*Descriptor, error) {
	var (
		d   *Descriptor
		err error
	)
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".xml":
		d, err = parseXML(data, filename)
	case ".yaml", ".yml":
		d, err = parseYAML(data, filename)
	case ".json", ".jsonc":
		d, err = parseJSON(data, filename)
	default:
		return nil, fmt.Errorf("unsupported descriptor format %q", filename)
	}
	if err != nil {
		return nil, err
	}
	if err := d.Validate(); err != nil {
		return nil, err
	}
	return d, nil
}
