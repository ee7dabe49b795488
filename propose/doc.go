// Package propose suggests article themes for a seed keyword.
//
// Service.Propose searches the web for articles ranking on the keyword and
// queries the knowledge base, then asks the generator for themes that
// combine the two. The lookups are advisory: a failed search or query is
// logged and the generator works with what remains. Only a generation
// failure fails the call.
package propose
