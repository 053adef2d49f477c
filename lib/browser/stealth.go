package browser

// stealthScript runs before any page script on every new document. It
// scrubs the automation markers that the target's bot detection probes
// for. The chrome object deliberately omits `runtime`, its presence is
// itself a headless marker.
const stealthScript = `
Object.defineProperty(navigator, 'webdriver', {
	get: () => undefined,
	configurable: true,
});
delete Object.getPrototypeOf(navigator).webdriver;

Object.defineProperty(window, 'chrome', {
	get: () => ({
		loadTimes: function () {
			return {
				connectionInfo: 'http/1.1',
				finishDocumentLoadTime: Date.now() / 1000,
				finishLoadTime: Date.now() / 1000,
				firstPaintAfterLoadTime: 0,
				firstPaintTime: Date.now() / 1000,
				navigationType: 'Other',
				npnNegotiatedProtocol: 'unknown',
				requestTime: (Date.now() - 1000) / 1000,
				startLoadTime: (Date.now() - 1000) / 1000,
				wasAlternateProtocolAvailable: false,
				wasFetchedViaSpdy: false,
				wasNpnNegotiated: false,
			};
		},
		csi: function () {
			return { pageT: Date.now(), startE: Date.now() - 1000, tran: 15 };
		},
		app: {},
	}),
	enumerable: true,
	configurable: true,
});

Object.defineProperty(navigator, 'plugins', {
	get: () => [1, 2, 3, 4, 5],
	configurable: true,
});

Object.defineProperty(navigator, 'languages', {
	get: () => ['en-US', 'en'],
	configurable: true,
});

const originalQuery = window.navigator.permissions.query;
window.navigator.permissions.query = (parameters) => (
	parameters.name === 'notifications'
		? Promise.resolve({ state: Notification.permission })
		: originalQuery(parameters)
);

Object.defineProperty(navigator, 'hardwareConcurrency', {
	get: () => 8,
	configurable: true,
});
Object.defineProperty(navigator, 'deviceMemory', {
	get: () => 8,
	configurable: true,
});

const getParameter = WebGLRenderingContext.prototype.getParameter;
WebGLRenderingContext.prototype.getParameter = function (parameter) {
	if (parameter === 37445) return 'Intel Inc.';
	if (parameter === 37446) return 'Intel Iris OpenGL Engine';
	return getParameter.apply(this, arguments);
};
`
