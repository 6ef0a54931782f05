package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dshills/studydiary/internal/redeem"
	"github.com/dshills/studydiary/internal/store"
)

// withShop opens the ledger and the seeded shop for fn.
func (a *app) withShop(ctx context.Context, fn func(st *store.Store, svc *redeem.Service) error) error {
	st, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	defer closeStore(a, st)
	svc, err := a.shop(ctx, st)
	if err != nil {
		return err
	}
	return fn(st, svc)
}

type shopFlags struct {
	category string
	all      bool
}

func newShopCmd(a *app) *cobra.Command {
	f := &shopFlags{}
	cmd := &cobra.Command{
		Use:   "shop",
		Short: "List rewards you can afford",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			return a.withShop(ctx, func(st *store.Store, svc *redeem.Service) error {
				total, err := st.TotalPoints(ctx)
				if err != nil {
					return storageError(err)
				}
				var rewards []store.Reward
				switch {
				case f.category != "":
					rewards, err = svc.ByCategory(ctx, f.category)
				case f.all:
					rewards, err = svc.All(ctx)
				default:
					rewards, err = svc.Available(ctx, total)
				}
				if err != nil {
					return storageError(err)
				}
				if len(rewards) == 0 {
					fmt.Fprintf(a.out, "Nothing to show (balance: %d). Use --all to see every reward.\n", total)
					return nil
				}
				return a.printer().Shop(rewards, svc.Catalogue(), total)
			})
		},
	}
	cmd.Flags().StringVar(&f.category, "category", "", "Only show one category (e.g. rest, food, study)")
	cmd.Flags().BoolVar(&f.all, "all", false, "Show rewards you cannot afford yet")
	return cmd
}

func newRedeemCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "redeem <reward-id>",
		Short: "Spend points on a reward",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			return a.withShop(ctx, func(st *store.Store, svc *redeem.Service) error {
				red, remaining, err := svc.Redeem(ctx, args[0])
				switch {
				case errors.Is(err, redeem.ErrInsufficientPoints):
					return exitError(exitInsufficient, "%v", err)
				case errors.Is(err, redeem.ErrUnknownReward):
					return exitError(exitBadInput, "%v", err)
				case err != nil:
					return storageError(err)
				}
				fmt.Fprintf(a.out, "🎉 Redeemed %s for %d points. Remaining balance: %d\n", red.RewardName, red.PointsSpent, remaining)
				return nil
			})
		},
	}
}

func newRewardsCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rewards",
		Short: "Manage the reward catalogue",
	}
	cmd.AddCommand(newRewardsListCmd(a), newRewardsAddCmd(a), newRewardsUpdateCmd(a), newRewardsRemoveCmd(a))
	return cmd
}

func newRewardsListCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List every reward",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			return a.withShop(ctx, func(st *store.Store, svc *redeem.Service) error {
				total, err := st.TotalPoints(ctx)
				if err != nil {
					return storageError(err)
				}
				rewards, err := svc.All(ctx)
				if err != nil {
					return storageError(err)
				}
				return a.printer().Shop(rewards, svc.Catalogue(), total)
			})
		},
	}
}

type rewardFlags struct {
	name        string
	description string
	points      int
	category    string
	emoji       string
}

func (f *rewardFlags) register(cmd *cobra.Command) {
	flags := cmd.Flags()
	flags.StringVar(&f.name, "name", "", "Reward name")
	flags.StringVar(&f.description, "description", "", "Reward description")
	flags.IntVar(&f.points, "points", 0, "Cost in points")
	flags.StringVar(&f.category, "category", "", "Category key (e.g. rest, food, study)")
	flags.StringVar(&f.emoji, "emoji", "🎁", "Emoji shown next to the name")
}

func (f *rewardFlags) reward(id string) store.Reward {
	return store.Reward{ID: id, Name: f.name, Description: f.description, Points: f.points, Category: f.category, Emoji: f.emoji}
}

func newRewardsAddCmd(a *app) *cobra.Command {
	f := &rewardFlags{}
	cmd := &cobra.Command{
		Use:   "add <reward-id>",
		Short: "Add a custom reward",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			return a.withShop(ctx, func(_ *store.Store, svc *redeem.Service) error {
				if err := rewardError(svc.Add(ctx, f.reward(args[0]))); err != nil {
					return err
				}
				fmt.Fprintf(a.out, "Added reward %s\n", args[0])
				return nil
			})
		},
	}
	f.register(cmd)
	return cmd
}

func newRewardsUpdateCmd(a *app) *cobra.Command {
	f := &rewardFlags{}
	cmd := &cobra.Command{
		Use:   "update <reward-id>",
		Short: "Change a reward; unset flags keep their current value",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			return a.withShop(ctx, func(st *store.Store, svc *redeem.Service) error {
				cur, err := st.Reward(ctx, args[0])
				if errors.Is(err, store.ErrNotFound) {
					return exitError(exitBadInput, "unknown reward %q", args[0])
				}
				if err != nil {
					return storageError(err)
				}
				flags := cmd.Flags()
				if flags.Changed("name") {
					cur.Name = f.name
				}
				if flags.Changed("description") {
					cur.Description = f.description
				}
				if flags.Changed("points") {
					cur.Points = f.points
				}
				if flags.Changed("category") {
					cur.Category = f.category
				}
				if flags.Changed("emoji") {
					cur.Emoji = f.emoji
				}
				if err := rewardError(svc.Update(ctx, cur)); err != nil {
					return err
				}
				fmt.Fprintf(a.out, "Updated reward %s\n", args[0])
				return nil
			})
		},
	}
	f.register(cmd)
	return cmd
}

func newRewardsRemoveCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "remove <reward-id>",
		Short: "Remove a reward",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			return a.withShop(ctx, func(_ *store.Store, svc *redeem.Service) error {
				if err := rewardError(svc.Remove(ctx, args[0])); err != nil {
					return err
				}
				fmt.Fprintf(a.out, "Removed reward %s\n", args[0])
				return nil
			})
		},
	}
}

// rewardError maps catalogue mistakes to bad input and the rest to storage.
func rewardError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, redeem.ErrUnknownReward), errors.Is(err, store.ErrDuplicate), errors.Is(err, redeem.ErrInvalidReward):
		return exitError(exitBadInput, "%v", err)
	}
	return storageError(err)
}

type redemptionsFlags struct {
	since string
	stats bool
}

func newRedemptionsCmd(a *app) *cobra.Command {
	f := &redemptionsFlags{}
	cmd := &cobra.Command{
		Use:   "redemptions",
		Short: "Show redemption history",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			return a.withShop(ctx, func(_ *store.Store, svc *redeem.Service) error {
				p := a.printer()
				if f.stats {
					st, err := svc.Stats(ctx)
					if err != nil {
						return storageError(err)
					}
					return p.RedemptionStats(st, svc.Catalogue())
				}
				reds, err := svc.History(ctx, f.since)
				if err != nil {
					return storageError(err)
				}
				return p.Redemptions(reds)
			})
		},
	}
	cmd.Flags().StringVar(&f.since, "since", "", "Only show redemptions on or after this date (YYYY-MM-DD)")
	cmd.Flags().BoolVar(&f.stats, "stats", false, "Show totals and per-category counts")
	return cmd
}
