package config

// DefaultDialects returns the built-in schemas in detection priority order:
// COM first, because its root marker contains the STANDARD one.
func DefaultDialects() []*DialectConfig {
	dialects := []*DialectConfig{comDialect(), standardDialect()}
	for _, d := range dialects {
		applyDialectDefaults(d)
	}
	return dialects
}

func defaultKey() []KeyColumn {
	return []KeyColumn{
		{Attribute: "STOREID", Column: "TICKET_STOREID"},
		{Attribute: "POSNUMBER", Column: "TICKET_POSNUMBER"},
		{Attribute: "OPERATIONNUMBER", Column: "TICKET_OPERATIONNUMBER"},
		{Attribute: "TICKETNUMBER", Column: "TICKET_TICKETNUMBER"},
	}
}

// plain builds fields resolved by the default attribute-then-child rule.
func plain(names ...string) []FieldConfig {
	out := make([]FieldConfig, len(names))
	for i, n := range names {
		out[i] = FieldConfig{Name: n}
	}
	return out
}

// amount builds a decimal-normalized field.
func amount(name string, candidates ...string) FieldConfig {
	return FieldConfig{
		Name:       name,
		Candidates: candidates,
		Normalize:  []Action{{Type: "decimal"}},
	}
}

func field(name string, candidates ...string) FieldConfig {
	return FieldConfig{Name: name, Candidates: candidates}
}

func standardDialect() *DialectConfig {
	ticketFields := plain("serial", "date", "time", "operatorId")
	ticketFields = append(ticketFields,
		amount("totalSale"),
		amount("totalNet"),
	)
	ticketFields = append(ticketFields, plain("isVoidTicket", "employeeId", "fiscalprinterId", "operationTypeGroup")...)
	ticketFields = append(ticketFields, amount("roundingError"))

	lineFields := plain("serial", "date", "time", "lineNumber", "barcode",
		"campaignYear", "campaign", "description", "familyCode",
		"subFamilyCode", "period", "departmentId")
	lineFields = append(lineFields, amount("quantity"), amount("orgPrice"), amount("price"))
	lineFields = append(lineFields, plain("employeeId", "isVoidLine",
		"operationTypeGroup", "lineType", "controlCode", "productTypeId", "voidLine")...)

	paymentFields := plain("serial", "date", "time", "mediaId", "mediaType", "description")
	paymentFields = append(paymentFields, amount("amount"))
	paymentFields = append(paymentFields, field("currency"))
	paymentFields = append(paymentFields, amount("exchangeRate"))
	paymentFields = append(paymentFields, plain("cardType", "authorizationCode")...)

	return &DialectConfig{
		Name:             DialectStandard,
		RootMarkers:      []string{"ItxCloseExport", "ITX_CLOSE_EXPORT"},
		RootExcludes:     []string{"_COM"},
		ContainerMarkers: []string{"SALE_LINES", "VOIDED_TICKETS", "TRANSACTIONS", "WARNINGS"},
		TicketFields:     ticketFields,
		Sections: []SectionConfig{
			{
				Table:      "SALE_LINES",
				Container:  "SALE_LINES",
				Element:    "LINE",
				Direct:     true,
				Attributes: []string{AllAttributes},
				Fields:     lineFields,
				Collections: []CollectionConfig{
					{Column: "taxes", Item: "LINE_TAX", Value: "taxPercent", Suffix: "%"},
					{Column: "promotions", Item: "PROMOTION", Value: "name"},
				},
			},
			{
				Table:      "TICKET_DATA",
				Container:  "TICKET_DATA_LIST",
				Element:    "TICKET_DATA",
				Attributes: []string{AllAttributes},
				TextColumn: "value",
				KeyFirst:   true,
			},
			{
				Table:      "TICKET_COUNTERS",
				Container:  "TICKET_COUNTER_LIST",
				Element:    "TICKET_COUNTER",
				Attributes: []string{AllAttributes},
				KeyFirst:   true,
			},
			{
				Table:     "TICKET_AUTHS",
				Container: "TICKET_AUTH_LIST",
				Element:   "TICKET_AUTH",
				ChildText: true,
			},
			{
				Table:      "PAYMENTS",
				Container:  "MEDIA_LINES",
				Element:    "MEDIA",
				Attributes: []string{AllAttributes},
				Fields:     paymentFields,
			},
		},
		DocumentSections: []SectionConfig{
			{Table: "VOIDED_TICKETS", Container: "VOIDED_TICKETS", Element: "TICKET_VOID", Attributes: []string{AllAttributes}, ChildText: true},
			{Table: "TRANSACTIONS", Container: "TRANSACTIONS", Element: "TRANSACTION", Attributes: []string{AllAttributes}, ChildText: true},
			{Table: "WARNINGS", Container: "WARNINGS", Element: "WARNING", Attributes: []string{AllAttributes}, ChildText: true},
		},
	}
}

// comDialect maps the COM item layout onto the STANDARD column names so the
// two variants produce joinable tables.
func comDialect() *DialectConfig {
	ticketFields := plain("serial", "date", "time", "operatorId")
	ticketFields = append(ticketFields,
		amount("totalSale", "@totalSale", "totalSale", "TOTALS/totalSale"),
		amount("totalNet", "@totalNet", "totalNet", "TOTALS/totalNet"),
	)
	ticketFields = append(ticketFields, plain("isVoidTicket", "employeeId", "fiscalprinterId", "operationTypeGroup")...)
	ticketFields = append(ticketFields,
		amount("roundingError"),
		field("orderNumber", "@orderNumber", "orderNumber", "ORDER_INFO/orderNumber"),
		field("channel", "@channel", "channel", "ORDER_INFO/channel"),
	)

	lineFields := []FieldConfig{
		field("serial"),
		field("date"),
		field("time"),
		field("lineNumber", "@lineNumber", "lineNumber", "itemNumber", "@seq"),
		field("barcode", "@barcode", "barcode", "ean", "ITEM_INFO/ean"),
		field("campaignYear", "@campaignYear", "campaignYear", "ITEM_INFO/campaignYear"),
		field("campaign", "@campaign", "campaign", "ITEM_INFO/campaign"),
		field("description", "@description", "description", "ITEM_INFO/description"),
		field("familyCode", "@familyCode", "familyCode", "ITEM_INFO/familyCode"),
		field("subFamilyCode", "@subFamilyCode", "subFamilyCode", "ITEM_INFO/subFamilyCode"),
		field("period"),
		field("departmentId", "@departmentId", "departmentId", "ITEM_INFO/departmentId"),
		amount("quantity", "@quantity", "quantity", "qty"),
		amount("orgPrice", "@orgPrice", "orgPrice", "originalPrice", "PRICES/original"),
		amount("price", "@price", "price", "unitPrice", "PRICES/final"),
		field("employeeId"),
		field("isVoidLine", "@isVoidLine", "isVoidLine", "isVoidItem"),
		field("operationTypeGroup"),
		field("lineType", "@lineType", "lineType", "itemType"),
		field("controlCode"),
		field("productTypeId"),
		field("voidLine", "@voidLine", "voidLine", "voidItem"),
	}

	paymentFields := []FieldConfig{
		field("serial"),
		field("date"),
		field("time"),
		field("mediaId", "@mediaId", "mediaId", "paymentMethodId"),
		field("mediaType", "@mediaType", "mediaType", "paymentMethod"),
		field("description"),
		amount("amount", "@amount", "amount", "value"),
		field("currency", "@currency", "currency", "currencyCode"),
		field("transactionId", "@transactionId", "transactionId", "PSP_INFO/transactionId"),
	}

	return &DialectConfig{
		Name:             DialectCOM,
		RootMarkers:      []string{"ITX_CLOSE_EXPORT_COM"},
		ContainerMarkers: []string{"SALE_LINE_ITEMS", "CUSTOMER_TICKETS"},
		TicketFields:     ticketFields,
		Sections: []SectionConfig{
			{
				Table:      "SALE_LINES",
				Container:  "SALE_LINE_ITEMS",
				Element:    "ITEM",
				Direct:     true,
				Attributes: []string{AllAttributes},
				Fields:     lineFields,
				Collections: []CollectionConfig{
					{Column: "taxes", Item: "ITEM_TAX", Value: "taxPercent", Suffix: "%"},
					{Column: "promotions", Item: "ITEM_PROMOTION", Value: "name"},
				},
			},
			{
				Table:      "TICKET_DATA",
				Container:  "TICKET_DATA_LIST",
				Element:    "TICKET_DATA",
				Attributes: []string{AllAttributes},
				TextColumn: "value",
				KeyFirst:   true,
			},
			{
				Table:      "TICKET_COUNTERS",
				Container:  "TICKET_COUNTER_LIST",
				Element:    "TICKET_COUNTER",
				Attributes: []string{AllAttributes},
				KeyFirst:   true,
			},
			{
				Table:     "TICKET_AUTHS",
				Container: "TICKET_AUTH_LIST",
				Element:   "TICKET_AUTH",
				ChildText: true,
			},
			{
				Table:      "PAYMENTS",
				Container:  "MEDIA_LINES",
				Element:    "MEDIA",
				Attributes: []string{AllAttributes},
				Fields:     paymentFields,
			},
			{
				Table:      "CUSTOMER_TICKETS",
				Container:  "CUSTOMER_TICKETS",
				Element:    "CT_TICKET",
				Attributes: []string{AllAttributes},
				ChildText:  true,
			},
		},
	}
}
