package rdf

// Namespace IRIs bound as prefixes in every graph.
const (
	RDFNS  = "http://www.w3.org/1999/02/22-rdf-syntax-ns#"
	RDFSNS = "http://www.w3.org/2000/01/rdf-schema#"
	OWLNS  = "http://www.w3.org/2002/07/owl#"
	XSDNS  = "http://www.w3.org/2001/XMLSchema#"
)

// Terms of the RDF, RDFS and OWL vocabularies used by the translator.
const (
	RDFType = IRI(RDFNS + "type")

	RDFSSubClassOf    = IRI(RDFSNS + "subClassOf")
	RDFSSubPropertyOf = IRI(RDFSNS + "subPropertyOf")
	RDFSDomain        = IRI(RDFSNS + "domain")
	RDFSRange         = IRI(RDFSNS + "range")
	RDFSLabel         = IRI(RDFSNS + "label")
	RDFSComment       = IRI(RDFSNS + "comment")
	RDFSDatatype      = IRI(RDFSNS + "Datatype")

	OWLOntology         = IRI(OWLNS + "Ontology")
	OWLClass            = IRI(OWLNS + "Class")
	OWLObjectProperty   = IRI(OWLNS + "ObjectProperty")
	OWLDatatypeProperty = IRI(OWLNS + "DatatypeProperty")
	OWLNamedIndividual  = IRI(OWLNS + "NamedIndividual")
	OWLRestriction      = IRI(OWLNS + "Restriction")
	OWLOnProperty       = IRI(OWLNS + "onProperty")
	OWLMinCardinality   = IRI(OWLNS + "minCardinality")
	OWLMaxCardinality   = IRI(OWLNS + "maxCardinality")
	OWLCardinality      = IRI(OWLNS + "cardinality")
	OWLOneOf            = IRI(OWLNS + "oneOf")
	OWLUnionOf          = IRI(OWLNS + "unionOf")

	XSDString             = IRI(XSDNS + "string")
	XSDNonNegativeInteger = IRI(XSDNS + "nonNegativeInteger")
)
