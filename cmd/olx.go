package main

import (
	"fmt"
	"strconv"

	"github.com/franciscosanchezn/partstock/internal/output"
	"github.com/spf13/cobra"
)

func newOLXCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "olx",
		Short: "Marketplace operations",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "publish",
			Short: "Publish every pending draft",
			RunE: func(cmd *cobra.Command, args []string) error {
				return withApp(func(a *app) error {
					summary, err := a.publish.ProcessAllDrafts(cmd.Context())
					if err != nil {
						return err
					}
					return output.WritePublishSummary(cmd.OutOrStdout(), summary)
				})
			},
		},
		&cobra.Command{
			Use:   "refresh",
			Short: "Pull listing statuses from the marketplace",
			RunE: func(cmd *cobra.Command, args []string) error {
				return withApp(func(a *app) error {
					result, err := a.adverts.RefreshStatus(cmd.Context())
					if err != nil {
						return err
					}
					return output.WriteRefreshResult(cmd.OutOrStdout(), result)
				})
			},
		},
		&cobra.Command{
			Use:   "adverts",
			Short: "List adverts with live marketplace data",
			RunE: func(cmd *cobra.Command, args []string) error {
				return withApp(func(a *app) error {
					listings, err := a.adverts.ListEnriched(cmd.Context())
					if err != nil {
						return err
					}
					return output.WriteListings(cmd.OutOrStdout(), listings)
				})
			},
		},
		&cobra.Command{
			Use:   "status",
			Short: "Show marketplace token state",
			RunE: func(cmd *cobra.Command, args []string) error {
				return withApp(func(a *app) error {
					if _, err := a.olxAuth.GetClientToken(cmd.Context()); err != nil {
						log.WithError(err).Warn("Client token acquisition failed")
					}
					status, err := a.olxAuth.Status(cmd.Context())
					if err != nil {
						return err
					}
					return output.WriteTokenStatus(cmd.OutOrStdout(), status)
				})
			},
		},
		newOLXConfigCmd(),
	)
	return cmd
}

func newOLXConfigCmd() *cobra.Command {
	var autoOnly bool
	categories := &cobra.Command{
		Use:   "categories",
		Short: "List marketplace categories",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(func(a *app) error {
				read := a.olxConfig.Categories
				if autoOnly {
					read = a.olxConfig.AutoPartsCategories
				}
				list, err := read(cmd.Context())
				if err != nil {
					return err
				}
				return output.WriteCategories(cmd.OutOrStdout(), list)
			})
		},
	}
	categories.Flags().BoolVar(&autoOnly, "auto", false, "only categories that look like vehicle parts")

	var nameFilter string
	cities := &cobra.Command{
		Use:   "cities",
		Short: "List marketplace cities",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(func(a *app) error {
				list, err := a.olxConfig.Cities(cmd.Context(), nameFilter)
				if err != nil {
					return err
				}
				return output.WriteCities(cmd.OutOrStdout(), list)
			})
		},
	}
	cities.Flags().StringVar(&nameFilter, "name", "", "case-insensitive name filter")

	attributes := &cobra.Command{
		Use:   "attributes <category-id>",
		Short: "List the attributes of a category",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			categoryID, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid category id %q", args[0])
			}
			return withApp(func(a *app) error {
				attrs, err := a.olxConfig.CategoryAttributes(cmd.Context(), categoryID)
				if err != nil {
					return err
				}
				return output.WriteCategoryAttributes(cmd.OutOrStdout(), attrs)
			})
		},
	}

	cmd := &cobra.Command{
		Use:   "config",
		Short: "Read marketplace reference data with the client token",
	}
	cmd.AddCommand(categories, cities, attributes)
	return cmd
}

// withApp bootstraps the app for a one-shot command and closes it after.
func withApp(fn func(a *app) error) error {
	a, err := bootstrap()
	if err != nil {
		return err
	}
	defer a.Close()
	return fn(a)
}
