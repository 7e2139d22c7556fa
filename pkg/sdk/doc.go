// Package wizard embeds the metadata lookup proxy in Go programs. It reads a
// schema document, queries the lookup APIs it declares and returns
// normalized records, without running the HTTP server.
//
//	client, _ := wizard.New(wizard.WithSchemaFile("config/schema.json"))
//	res, _ := client.Search(ctx, "mygene", "Pax6", wizard.WithSpecies("10090"))
//	for _, r := range res.Records {
//	    fmt.Println(r.Label, r.ID)
//	}
//
// Custom mappers referenced by "function_name" in the schema are added with
// WithMapper before the client is built.
package wizard
