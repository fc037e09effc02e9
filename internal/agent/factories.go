package agent

import (
	"github.com/DGFellow/product-research-agent/config"
	"github.com/DGFellow/product-research-agent/tools"
	"github.com/DGFellow/product-research-agent/tools/alibaba"
	"github.com/DGFellow/product-research-agent/tools/amazon"
)

// NewToolset builds the registered scraper tools over one shared navigator,
// in the order they are invoked during collection.
func NewToolset(nav tools.Navigator, cfg config.ScrapersConfig) []tools.Tool {
	return []tools.Tool{
		alibaba.New(nav, cfg.WholesaleBase, cfg.SelectorTimeout),
		amazon.New(nav, cfg.RetailBase, cfg.SelectorTimeout),
	}
}
