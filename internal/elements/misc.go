package elements

func init() {
	register(&Kind{
		Name:       "DocumentSet",
		SchemaType: "DocumentSet",
		Optional:   []string{"short_name"},
		Registers:  "DocumentSet",
		NameAttr:   "short_name",
	})

	register(&Kind{
		Name:       "DataObject",
		SchemaType: "DataObject",
		Required:   []string{"acronym"},
		Optional:   []string{"description"},
		Registers:  "DataObject",
		NameAttr:   "acronym",
		Slot:       "data",
		Collection: true,
	})
}
