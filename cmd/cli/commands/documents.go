package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

// FamilyMembersCmd creates the familyMembers command
func FamilyMembersCmd(app *AppContext) *cobra.Command {
	return &cobra.Command{
		Use:   "familyMembers",
		Short: "List the family roster",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			members, err := app.Documents.ListFamilyMembers(app.Ctx)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "\nFound %d family members:\n\n", len(members))
			for _, m := range members {
				role := ""
				if m.Role != "" {
					role = fmt.Sprintf(" [%s]", m.Role)
				}
				fmt.Fprintf(out, "- %s (%s)%s %s\n", m.Name, m.ID, role, m.Email)
			}
			fmt.Fprintln(out)
			return nil
		},
	}
}

// GalleryCmd creates the gallery command
func GalleryCmd(app *AppContext) *cobra.Command {
	return &cobra.Command{
		Use:   "gallery <month>",
		Short: "List members synced under a birthday month",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			gallery, err := app.Documents.ListMonthGallery(app.Ctx, args[0])
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "\n%d members in %s:\n\n", len(gallery), args[0])
			for _, m := range gallery {
				photo := "no photo"
				if m.PhotoPath != "" {
					photo = m.PhotoPath
				}
				fmt.Fprintf(out, "- %s (%s) %s - %s\n", m.Name, m.Course, m.Birthday, photo)
			}
			fmt.Fprintln(out)
			return nil
		},
	}
}
