package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	nferrors "github.com/randalmurphal/noteflow/errors"
	"github.com/randalmurphal/noteflow/markdown"
	"github.com/randalmurphal/noteflow/vector"
)

func newKnowledgeCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "knowledge",
		Short: "Manage the similarity index used for internal references",
	}

	var collection string
	add := &cobra.Command{
		Use:   "add <file>...",
		Short: "Index markdown or text files into a collection",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if c.settings.ChromaURL == "" {
				return nferrors.ForCLI(nferrors.Validation("chroma_url", "required to index documents"))
			}
			idx, err := buildIndex(c.settings, c.logger)
			if err != nil {
				return err
			}
			docs, err := readDocuments(args)
			if err != nil {
				return err
			}
			if err := idx.Upsert(cmd.Context(), collection, docs...); err != nil {
				return nferrors.ForCLI(nferrors.Lookup("chroma", err))
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Indexed %d documents into %s\n", len(docs), collection)
			return nil
		},
	}
	add.Flags().StringVar(&collection, "collection", vector.CollectionKnowledgeBase,
		fmt.Sprintf("Collection (%s or %s)", vector.CollectionKnowledgeBase, vector.CollectionArchive))

	cmd.AddCommand(add)
	return cmd
}

// readDocuments reads files into documents keyed by base name. The title
// metadata is the first heading when there is one.
func readDocuments(paths []string) ([]vector.Document, error) {
	docs := make([]vector.Document, 0, len(paths))
	for _, p := range paths {
		data, err := os.ReadFile(p)
		if err != nil {
			return nil, err
		}
		content := strings.TrimSpace(string(data))
		if content == "" {
			continue
		}
		name := filepath.Base(p)
		title := markdown.Title(content)
		if title == "" {
			title = strings.TrimSuffix(name, filepath.Ext(name))
		}
		docs = append(docs, vector.Document{
			ID:       name,
			Content:  content,
			Metadata: map[string]string{"title": title, "source": p},
		})
	}
	return docs, nil
}
