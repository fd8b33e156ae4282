package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/urfave/cli/v2"

	"github.com/layer-3/recipebook/core"
	"github.com/layer-3/recipebook/recipes"
	"github.com/layer-3/recipebook/transport/client"
)

// maxPages bounds how far list commands walk the pagination
const maxPages = 50

var errNotSignedIn = errors.New("not signed in, run `recipebook signin` first")

var credentialFlags = []cli.Flag{
	&cli.StringFlag{Name: "username", Aliases: []string{"u"}, Required: true},
	&cli.StringFlag{Name: "password", Aliases: []string{"p"}, Required: true, EnvVars: []string{"RECIPEBOOK_PASSWORD"}},
}

// withSession runs fn with a mounted session. When signedIn is set fn only
// runs for a signed-in user.
func withSession(signedIn bool, fn func(c *cli.Context, rt *runtime, me *core.Identity) error) cli.ActionFunc {
	return func(c *cli.Context) error {
		rt, err := newRuntime(c)
		if err != nil {
			return err
		}
		defer rt.Close()

		me := rt.sessions.Mount(c.Context)
		if signedIn && me == nil {
			return errNotSignedIn
		}
		return fn(c, rt, me)
	}
}

func signUpCmd() *cli.Command {
	return &cli.Command{
		Name:  "signup",
		Usage: "Create an account",
		Flags: credentialFlags,
		Action: withSession(false, func(c *cli.Context, rt *runtime, _ *core.Identity) error {
			if err := rt.sessions.SignUp(c.Context, c.String("username"), c.String("password")); err != nil {
				return err
			}
			fmt.Fprintln(c.App.Writer, "Account created. Sign in to continue.")
			return nil
		}),
	}
}

func signInCmd() *cli.Command {
	return &cli.Command{
		Name:  "signin",
		Usage: "Sign in and store credentials",
		Flags: credentialFlags,
		Action: withSession(false, func(c *cli.Context, rt *runtime, _ *core.Identity) error {
			me, err := rt.sessions.SignIn(c.Context, c.String("username"), c.String("password"))
			if err != nil {
				return err
			}
			fmt.Fprintf(c.App.Writer, "Signed in as %s\n", me.Username)
			return nil
		}),
	}
}

func whoAmICmd() *cli.Command {
	return &cli.Command{
		Name:  "whoami",
		Usage: "Show the signed-in user",
		Action: withSession(false, func(c *cli.Context, rt *runtime, me *core.Identity) error {
			if me == nil {
				fmt.Fprintln(c.App.Writer, "Not signed in")
				return nil
			}
			fmt.Fprintf(c.App.Writer, "%s (user %d, profile %d)\n", me.Username, me.ID, me.ProfileID)
			return nil
		}),
	}
}

func signOutCmd() *cli.Command {
	return &cli.Command{
		Name:  "signout",
		Usage: "Sign out and forget stored credentials",
		Action: withSession(false, func(c *cli.Context, rt *runtime, _ *core.Identity) error {
			if err := rt.sessions.SignOut(c.Context); err != nil {
				return err
			}
			fmt.Fprintln(c.App.Writer, "Signed out")
			return nil
		}),
	}
}

var filterFlags = []cli.Flag{
	&cli.StringFlag{Name: "search", Aliases: []string{"s"}, Usage: "title contains"},
	&cli.StringFlag{Name: "difficulty", Usage: "Easy, Medium or Hard"},
	&cli.StringFlag{Name: "cook-time", Usage: "quick (<= 30 min) or long (>= 60 min)"},
	&cli.StringFlag{Name: "sort", Usage: "az or latest"},
}

func filterFrom(c *cli.Context) (recipes.Filter, error) {
	f := recipes.Filter{
		Search:     c.String("search"),
		Difficulty: core.Difficulty(c.String("difficulty")),
		CookTime:   core.CookTime(c.String("cook-time")),
		Sort:       recipes.SortOrder(c.String("sort")),
	}
	if f.Difficulty != "" && !f.Difficulty.Valid() {
		return f, fmt.Errorf("unknown difficulty %q", f.Difficulty)
	}
	if !f.CookTime.Valid() {
		return f, fmt.Errorf("unknown cook time %q", f.CookTime)
	}
	switch f.Sort {
	case recipes.SortNone, recipes.SortAZ, recipes.SortLatest:
	default:
		return f, fmt.Errorf("unknown sort order %q", f.Sort)
	}
	return f, nil
}

func feedCmd() *cli.Command {
	return &cli.Command{
		Name:  "feed",
		Usage: "List recipes",
		Flags: append([]cli.Flag{
			&cli.StringFlag{Name: "owner", Usage: "only recipes by this user"},
		}, filterFlags...),
		Action: withSession(true, func(c *cli.Context, rt *runtime, _ *core.Identity) error {
			f, err := filterFrom(c)
			if err != nil {
				return err
			}
			f.Owner = c.String("owner")

			list, err := allRecipes(c.Context, rt.api, client.RecipeQuery{
				Search:     f.Search,
				Difficulty: f.Difficulty,
				CookTime:   f.CookTime,
				Owner:      f.Owner,
			})
			if err != nil {
				return err
			}

			printRecipes(c.App.Writer, recipes.Apply(list, f))
			return nil
		}),
	}
}

func dashboardCmd() *cli.Command {
	return &cli.Command{
		Name:  "dashboard",
		Usage: "Show your recipes and the recipes you liked",
		Flags: filterFlags,
		Action: withSession(true, func(c *cli.Context, rt *runtime, me *core.Identity) error {
			f, err := filterFrom(c)
			if err != nil {
				return err
			}

			all, err := allRecipes(c.Context, rt.api, client.RecipeQuery{})
			if err != nil {
				return err
			}
			likes, err := rt.api.ListLikes(c.Context)
			if err != nil {
				return err
			}

			mine := f
			mine.Owner = me.Username

			fmt.Fprintln(c.App.Writer, "My recipes")
			printRecipes(c.App.Writer, recipes.Apply(all, mine))
			fmt.Fprintln(c.App.Writer)
			fmt.Fprintln(c.App.Writer, "Liked recipes")
			printRecipes(c.App.Writer, recipes.Apply(recipes.ByIDs(all, recipes.LikedRecipeIDs(likes.Results)), f))
			return nil
		}),
	}
}

func likeCmd() *cli.Command {
	return &cli.Command{
		Name:      "like",
		Usage:     "Like a recipe",
		ArgsUsage: "RECIPE_ID",
		Action: withSession(true, func(c *cli.Context, rt *runtime, _ *core.Identity) error {
			id, err := intArg(c, 0, "recipe id")
			if err != nil {
				return err
			}
			like, err := rt.api.Like(c.Context, id)
			if err != nil {
				return err
			}
			fmt.Fprintf(c.App.Writer, "Liked recipe %d (like %d)\n", like.Recipe, like.ID)
			return nil
		}),
	}
}

func commentCmd() *cli.Command {
	return &cli.Command{
		Name:      "comment",
		Usage:     "Comment on a recipe",
		ArgsUsage: "RECIPE_ID TEXT...",
		Action: withSession(true, func(c *cli.Context, rt *runtime, _ *core.Identity) error {
			id, err := intArg(c, 0, "recipe id")
			if err != nil {
				return err
			}
			text := strings.Join(c.Args().Tail(), " ")
			if text == "" {
				return errors.New("comment text is required")
			}
			comment, err := rt.api.CreateComment(c.Context, id, text)
			if err != nil {
				return err
			}
			fmt.Fprintf(c.App.Writer, "Comment %d added to recipe %d\n", comment.ID, comment.Recipe)
			return nil
		}),
	}
}

func followCmd() *cli.Command {
	return &cli.Command{
		Name:      "follow",
		Usage:     "Follow a profile",
		ArgsUsage: "PROFILE_ID",
		Action: withSession(true, func(c *cli.Context, rt *runtime, _ *core.Identity) error {
			id, err := intArg(c, 0, "profile id")
			if err != nil {
				return err
			}
			f, err := rt.api.Follow(c.Context, id)
			if err != nil {
				return err
			}
			fmt.Fprintf(c.App.Writer, "Following profile %d (follow %d)\n", f.Followed, f.ID)
			return nil
		}),
	}
}

func intArg(c *cli.Context, n int, name string) (int, error) {
	raw := c.Args().Get(n)
	if raw == "" {
		return 0, fmt.Errorf("%s is required", name)
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v <= 0 {
		return 0, fmt.Errorf("invalid %s %q", name, raw)
	}
	return v, nil
}

// allRecipes walks the pages of q
func allRecipes(ctx context.Context, api *client.APIClient, q client.RecipeQuery) ([]core.Recipe, error) {
	var out []core.Recipe
	for q.Page = 1; q.Page <= maxPages; q.Page++ {
		page, err := api.ListRecipes(ctx, q)
		if err != nil {
			return nil, err
		}
		out = append(out, page.Results...)
		if page.Next == "" {
			break
		}
	}
	return out, nil
}

func printRecipes(w io.Writer, list []core.Recipe) {
	if len(list) == 0 {
		fmt.Fprintln(w, "  (none)")
		return
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tTITLE\tDIFFICULTY\tMINUTES\tOWNER\tLIKES\tCOMMENTS")
	for _, r := range list {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%d\t%s\t%d\t%d\n",
			r.ID, r.Title, r.Difficulty, r.CookTime, r.Owner, r.LikesCount, r.CommentsCount)
	}
	_ = tw.Flush()
}
