package scraper

import "pricewatch/models"

// Selector lists are ordered; earlier entries win. Reordering them changes
// which element a page yields.

var titleSelectors = map[models.Retailer][]string{
	models.RetailerAmazon: {
		"#productTitle",
		"#title #productTitle",
		"h1#title span",
		"h1.a-size-large",
		"#title",
		"title",
	},
	models.RetailerEbay: {
		"h1.x-item-title__mainTitle span.ux-textspans",
		"h1.x-item-title__mainTitle",
		".x-item-title__mainTitle",
		"#itemTitle",
		"h1[itemprop='name']",
		"title",
	},
	models.RetailerBestBuy: {
		"h1.heading-5",
		".sku-title h1",
		"[data-testid='product-title']",
		"h1[class*='heading']",
		"h1",
		"title",
	},
	models.RetailerUnknown: {
		"h1",
		"title",
	},
}

var amazonPriceSelectors = []string{
	"#corePrice_feature_div .a-price .a-offscreen",
	"#corePriceDisplay_desktop_feature_div .a-price .a-offscreen",
	"#apex_desktop .a-price .a-offscreen",
	"#priceblock_ourprice",
	"#priceblock_dealprice",
	"#priceblock_saleprice",
	"#price_inside_buybox",
	"#newBuyBoxPrice",
	".a-price .a-offscreen",
	".a-price-whole",
}

var ebaySalePriceSelectors = []string{
	".x-price-primary .ux-textspans",
	".x-bin-price__content .ux-textspans",
	"[itemprop='price']",
	"#prcIsum",
	"#mm-saleDscPrc",
	"#prcIsum_bidPrice",
}

var ebayRegularPriceSelectors = []string{
	".x-additional-info .ux-textspans--STRIKETHROUGH",
	".ux-textspans--STRIKETHROUGH",
	"#orgPrc",
	".vi-originalPrice",
	".x-price-approx__price .ux-textspans",
}

var bestBuyPriceSelectors = []string{
	".priceView-customer-price span",
	"[data-testid='customer-price'] span",
	".priceView-hero-price span",
	".pricing-price__regular-price",
	"[data-testid='regular-price']",
	".priceView-price span",
}
