package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/layer-3/recipebook/core"
	"github.com/layer-3/recipebook/recipes"
	"github.com/layer-3/recipebook/transport/client"
)

var recipeFlags = []cli.Flag{
	&cli.StringFlag{Name: "title", Aliases: []string{"t"}},
	&cli.StringFlag{Name: "description", Usage: "short description"},
	&cli.StringFlag{Name: "ingredients"},
	&cli.StringFlag{Name: "steps"},
	&cli.IntFlag{Name: "cook-time", Usage: "minutes"},
	&cli.StringFlag{Name: "difficulty", Usage: "Easy, Medium or Hard"},
	&cli.StringFlag{Name: "image", Usage: "image URL"},
}

// recipeInputFrom overlays the flags that were set on base
func recipeInputFrom(c *cli.Context, base core.RecipeInput) (core.RecipeInput, error) {
	in := base
	if c.IsSet("title") {
		in.Title = c.String("title")
	}
	if c.IsSet("description") {
		in.ShortDescription = c.String("description")
	}
	if c.IsSet("ingredients") {
		in.Ingredients = c.String("ingredients")
	}
	if c.IsSet("steps") {
		in.Steps = c.String("steps")
	}
	if c.IsSet("cook-time") {
		in.CookTime = c.Int("cook-time")
	}
	if c.IsSet("difficulty") {
		in.Difficulty = core.Difficulty(c.String("difficulty"))
	}
	if c.IsSet("image") {
		in.ImageURL = c.String("image")
	}

	if strings.TrimSpace(in.Title) == "" {
		return in, errors.New("title is required")
	}
	if in.CookTime < 0 {
		return in, fmt.Errorf("invalid cook time %d", in.CookTime)
	}
	if in.Difficulty != "" && !in.Difficulty.Valid() {
		return in, fmt.Errorf("unknown difficulty %q", in.Difficulty)
	}
	return in, nil
}

func recipeCmd() *cli.Command {
	return &cli.Command{
		Name:  "recipe",
		Usage: "Show, create, edit or delete recipes",
		Subcommands: []*cli.Command{
			{
				Name:      "show",
				Usage:     "Show a recipe and its comments",
				ArgsUsage: "RECIPE_ID",
				Action: withSession(true, func(c *cli.Context, rt *runtime, _ *core.Identity) error {
					id, err := intArg(c, 0, "recipe id")
					if err != nil {
						return err
					}
					recipe, err := rt.api.GetRecipe(c.Context, id)
					if err != nil {
						return err
					}
					comments, err := rt.api.ListComments(c.Context, id)
					if err != nil {
						return err
					}

					w := c.App.Writer
					fmt.Fprintf(w, "%s (#%d) by %s\n", recipe.Title, recipe.ID, recipe.Owner)
					fmt.Fprintf(w, "%s, %d min, %d likes\n", recipe.Difficulty, recipe.CookTime, recipe.LikesCount)
					if recipe.ShortDescription != "" {
						fmt.Fprintln(w, recipe.ShortDescription)
					}
					fmt.Fprintf(w, "\nIngredients\n%s\n\nSteps\n%s\n", recipe.Ingredients, recipe.Steps)
					fmt.Fprintf(w, "\nComments (%d)\n", comments.Count)
					for _, cm := range comments.Results {
						fmt.Fprintf(w, "  #%d %s: %s\n", cm.ID, cm.Owner, cm.Content)
					}
					return nil
				}),
			},
			{
				Name:  "create",
				Usage: "Publish a recipe",
				Flags: recipeFlags,
				Action: withSession(true, func(c *cli.Context, rt *runtime, _ *core.Identity) error {
					in, err := recipeInputFrom(c, core.RecipeInput{Difficulty: core.DifficultyEasy})
					if err != nil {
						return err
					}
					recipe, err := rt.api.CreateRecipe(c.Context, in)
					if err != nil {
						return err
					}
					fmt.Fprintf(c.App.Writer, "Created recipe %d\n", recipe.ID)
					return nil
				}),
			},
			{
				Name:      "edit",
				Usage:     "Change the fields given as flags",
				ArgsUsage: "RECIPE_ID",
				Flags:     recipeFlags,
				Action: withSession(true, func(c *cli.Context, rt *runtime, _ *core.Identity) error {
					id, err := intArg(c, 0, "recipe id")
					if err != nil {
						return err
					}
					current, err := rt.api.GetRecipe(c.Context, id)
					if err != nil {
						return err
					}
					in, err := recipeInputFrom(c, core.RecipeInput{
						Title:            current.Title,
						ShortDescription: current.ShortDescription,
						Ingredients:      current.Ingredients,
						Steps:            current.Steps,
						CookTime:         current.CookTime,
						Difficulty:       current.Difficulty,
						ImageURL:         current.ImageURL,
					})
					if err != nil {
						return err
					}
					if _, err := rt.api.UpdateRecipe(c.Context, id, in); err != nil {
						return err
					}
					fmt.Fprintf(c.App.Writer, "Updated recipe %d\n", id)
					return nil
				}),
			},
			{
				Name:      "delete",
				Usage:     "Delete one of your recipes",
				ArgsUsage: "RECIPE_ID",
				Action: withSession(true, func(c *cli.Context, rt *runtime, _ *core.Identity) error {
					id, err := intArg(c, 0, "recipe id")
					if err != nil {
						return err
					}
					if err := rt.api.DeleteRecipe(c.Context, id); err != nil {
						return err
					}
					fmt.Fprintf(c.App.Writer, "Deleted recipe %d\n", id)
					return nil
				}),
			},
		},
	}
}

func profileCmd() *cli.Command {
	return &cli.Command{
		Name:  "profile",
		Usage: "Show, edit or delete profiles",
		Subcommands: []*cli.Command{
			{
				Name:      "show",
				Usage:     "Show a profile and its recipes (defaults to yours)",
				ArgsUsage: "[PROFILE_ID]",
				Action: withSession(true, func(c *cli.Context, rt *runtime, me *core.Identity) error {
					id := me.ProfileID
					if c.Args().Present() {
						var err error
						if id, err = intArg(c, 0, "profile id"); err != nil {
							return err
						}
					}
					profile, err := rt.api.GetProfile(c.Context, id)
					if err != nil {
						return err
					}
					list, err := allRecipes(c.Context, rt.api, client.RecipeQuery{Owner: profile.Owner})
					if err != nil {
						return err
					}

					w := c.App.Writer
					fmt.Fprintf(w, "%s (@%s, profile %d)\n", profile.Name, profile.Owner, profile.ID)
					if profile.Content != "" {
						fmt.Fprintln(w, profile.Content)
					}
					fmt.Fprintf(w, "%d recipes, %d followers, %d following\n\n",
						profile.RecipesCount, profile.FollowersCount, profile.FollowingCount)
					printRecipes(w, recipes.Apply(list, recipes.Filter{Owner: profile.Owner, Sort: recipes.SortLatest}))
					return nil
				}),
			},
			{
				Name:  "edit",
				Usage: "Change your profile",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "name"},
					&cli.StringFlag{Name: "bio"},
					&cli.StringFlag{Name: "image", Usage: "image URL"},
				},
				Action: withSession(true, func(c *cli.Context, rt *runtime, me *core.Identity) error {
					current, err := rt.api.GetProfile(c.Context, me.ProfileID)
					if err != nil {
						return err
					}
					in := core.ProfileInput{Name: current.Name, Content: current.Content, Image: current.Image}
					if c.IsSet("name") {
						in.Name = c.String("name")
					}
					if c.IsSet("bio") {
						in.Content = c.String("bio")
					}
					if c.IsSet("image") {
						in.Image = c.String("image")
					}
					if _, err := rt.api.UpdateProfile(c.Context, me.ProfileID, in); err != nil {
						return err
					}
					fmt.Fprintln(c.App.Writer, "Profile updated")
					return nil
				}),
			},
			{
				Name:  "delete",
				Usage: "Delete your profile and account, then sign out",
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "yes", Usage: "confirm deletion"},
				},
				Action: withSession(true, func(c *cli.Context, rt *runtime, me *core.Identity) error {
					if !c.Bool("yes") {
						return errors.New("refusing to delete the profile without --yes")
					}
					if err := rt.api.DeleteProfile(c.Context, me.ProfileID); err != nil {
						return err
					}
					if err := rt.sessions.SignOut(c.Context); err != nil {
						return err
					}
					fmt.Fprintln(c.App.Writer, "Profile deleted")
					return nil
				}),
			},
		},
	}
}

// deleteCmd builds a command that removes the resource named by its ID argument
func deleteCmd(name, usage, what string, del func(rt *runtime, c *cli.Context, id int) error) *cli.Command {
	return &cli.Command{
		Name:      name,
		Usage:     usage,
		ArgsUsage: strings.ToUpper(strings.ReplaceAll(what, " ", "_")),
		Action: withSession(true, func(c *cli.Context, rt *runtime, _ *core.Identity) error {
			id, err := intArg(c, 0, what)
			if err != nil {
				return err
			}
			if err := del(rt, c, id); err != nil {
				return err
			}
			fmt.Fprintf(c.App.Writer, "Removed %s %d\n", what, id)
			return nil
		}),
	}
}

func unlikeCmd() *cli.Command {
	return deleteCmd("unlike", "Remove a like", "like id", func(rt *runtime, c *cli.Context, id int) error {
		return rt.api.Unlike(c.Context, id)
	})
}

func unfollowCmd() *cli.Command {
	return deleteCmd("unfollow", "Stop following a profile", "follow id", func(rt *runtime, c *cli.Context, id int) error {
		return rt.api.Unfollow(c.Context, id)
	})
}

func uncommentCmd() *cli.Command {
	return deleteCmd("uncomment", "Delete one of your comments", "comment id", func(rt *runtime, c *cli.Context, id int) error {
		return rt.api.DeleteComment(c.Context, id)
	})
}
