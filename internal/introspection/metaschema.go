package introspection

// introspectionMetaTypes returns the fixed __Schema/__Type/__Field/... type
// declarations every GraphQL server exposes. Their shape is invariant
// GraphQL-spec structure (see the June 2018+ spec's "Schema Introspection"
// section), not something any Blueprint can customize, so it is declared
// once here rather than derived per Blueprint.
func introspectionMetaTypes() map[string]*Type {
	nonNullString := NonNullType(NamedType("String"))
	nonNullBoolean := NonNullType(NamedType("Boolean"))

	schemaType := &Type{
		Name: "__Schema",
		Kind: TypeKindObject,
		Fields: []*Field{
			{Name: "description", Type: NamedType("String")},
			{Name: "types", Type: NonNullType(ListType(NonNullType(NamedType("__Type"))))},
			{Name: "queryType", Type: NonNullType(NamedType("__Type"))},
			{Name: "mutationType", Type: NamedType("__Type")},
			{Name: "subscriptionType", Type: NamedType("__Type")},
			{Name: "directives", Type: NonNullType(ListType(NonNullType(NamedType("__Directive"))))},
		},
	}

	typeType := &Type{
		Name: "__Type",
		Kind: TypeKindObject,
		Fields: []*Field{
			{Name: "kind", Type: NonNullType(NamedType("__TypeKind"))},
			{Name: "name", Type: NamedType("String")},
			{Name: "description", Type: NamedType("String")},
			{Name: "specifiedByURL", Type: NamedType("String")},
			{Name: "fields", Type: ListType(NonNullType(NamedType("__Field"))), Arguments: []*InputValue{
				{Name: "includeDeprecated", Type: NamedType("Boolean"), DefaultValue: false},
			}},
			{Name: "interfaces", Type: ListType(NonNullType(NamedType("__Type")))},
			{Name: "possibleTypes", Type: ListType(NonNullType(NamedType("__Type")))},
			{Name: "enumValues", Type: ListType(NonNullType(NamedType("__EnumValue"))), Arguments: []*InputValue{
				{Name: "includeDeprecated", Type: NamedType("Boolean"), DefaultValue: false},
			}},
			{Name: "inputFields", Type: ListType(NonNullType(NamedType("__InputValue")))},
			{Name: "ofType", Type: NamedType("__Type")},
			{Name: "isOneOf", Type: nonNullBoolean},
		},
	}

	fieldType := &Type{
		Name: "__Field",
		Kind: TypeKindObject,
		Fields: []*Field{
			{Name: "name", Type: nonNullString},
			{Name: "description", Type: NamedType("String")},
			{Name: "args", Type: NonNullType(ListType(NonNullType(NamedType("__InputValue"))))},
			{Name: "type", Type: NonNullType(NamedType("__Type"))},
			{Name: "isDeprecated", Type: nonNullBoolean},
			{Name: "deprecationReason", Type: NamedType("String")},
		},
	}

	inputValueType := &Type{
		Name: "__InputValue",
		Kind: TypeKindObject,
		Fields: []*Field{
			{Name: "name", Type: nonNullString},
			{Name: "description", Type: NamedType("String")},
			{Name: "type", Type: NonNullType(NamedType("__Type"))},
			{Name: "defaultValue", Type: NamedType("String")},
			{Name: "isDeprecated", Type: nonNullBoolean},
			{Name: "deprecationReason", Type: NamedType("String")},
		},
	}

	enumValueType := &Type{
		Name: "__EnumValue",
		Kind: TypeKindObject,
		Fields: []*Field{
			{Name: "name", Type: nonNullString},
			{Name: "description", Type: NamedType("String")},
			{Name: "isDeprecated", Type: nonNullBoolean},
			{Name: "deprecationReason", Type: NamedType("String")},
		},
	}

	directiveType := &Type{
		Name: "__Directive",
		Kind: TypeKindObject,
		Fields: []*Field{
			{Name: "name", Type: nonNullString},
			{Name: "description", Type: NamedType("String")},
			{Name: "locations", Type: NonNullType(ListType(NonNullType(NamedType("__DirectiveLocation"))))},
			{Name: "args", Type: NonNullType(ListType(NonNullType(NamedType("__InputValue"))))},
			{Name: "isRepeatable", Type: nonNullBoolean},
		},
	}

	typeKindEnum := &Type{
		Name: "__TypeKind",
		Kind: TypeKindEnum,
		EnumValues: []*EnumValue{
			{Name: "SCALAR"}, {Name: "OBJECT"}, {Name: "INTERFACE"},
			{Name: "UNION"}, {Name: "ENUM"}, {Name: "INPUT_OBJECT"},
			{Name: "LIST"}, {Name: "NON_NULL"},
		},
	}

	directiveLocationEnum := &Type{
		Name: "__DirectiveLocation",
		Kind: TypeKindEnum,
		EnumValues: []*EnumValue{
			{Name: "QUERY"}, {Name: "MUTATION"}, {Name: "SUBSCRIPTION"},
			{Name: "FIELD"}, {Name: "FRAGMENT_DEFINITION"}, {Name: "FRAGMENT_SPREAD"},
			{Name: "INLINE_FRAGMENT"}, {Name: "VARIABLE_DEFINITION"},
			{Name: "SCHEMA"}, {Name: "SCALAR"}, {Name: "OBJECT"},
			{Name: "FIELD_DEFINITION"}, {Name: "ARGUMENT_DEFINITION"},
			{Name: "INTERFACE"}, {Name: "UNION"}, {Name: "ENUM"},
			{Name: "ENUM_VALUE"}, {Name: "INPUT_OBJECT"}, {Name: "INPUT_FIELD_DEFINITION"},
		},
	}

	return map[string]*Type{
		schemaType.Name:            schemaType,
		typeType.Name:              typeType,
		fieldType.Name:             fieldType,
		inputValueType.Name:        inputValueType,
		enumValueType.Name:         enumValueType,
		directiveType.Name:         directiveType,
		typeKindEnum.Name:          typeKindEnum,
		directiveLocationEnum.Name: directiveLocationEnum,
	}
}
