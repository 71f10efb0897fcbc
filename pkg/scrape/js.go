package scrape

// In-page extraction scripts. Each field tries an ordered list of
// selector candidates, most specific first, and takes the first
// non-empty match. Markup drifts, so every field carries fallbacks.

const profileJS = `() => {
	const pick = (sels, root = document) => {
		for (const sel of sels) {
			const el = root.querySelector(sel);
			if (el && el.innerText && el.innerText.trim()) return el.innerText.trim();
		}
		return '';
	};
	const pickAll = (sels) => {
		for (const sel of sels) {
			const els = document.querySelectorAll(sel);
			if (els.length) return Array.from(els);
		}
		return [];
	};

	const name = pick(['h1.text-heading-xlarge', 'h1.inline.t-24', 'main h1']);
	const headline = pick(['div.text-body-medium.break-words', '.pv-text-details__left-panel .text-body-medium', '.top-card-layout__headline']);
	const location = pick(['span.text-body-small.inline.t-black--light.break-words', '.pv-text-details__left-panel .text-body-small', '.top-card-layout__first-subline']);
	const about = pick(['#about ~ .display-flex .inline-show-more-text', 'section.summary div.core-section-container__content', '[data-section="summary"]']);

	const experience = pickAll(['#experience ~ .pvs-list__outer-container li.artdeco-list__item', 'section#experience-section li', 'ul.experience__list > li']).map(el => ({
		title: pick(['.t-bold span[aria-hidden="true"]', '.mr1.t-bold', 'h3'], el),
		company: pick(['.t-14.t-normal span[aria-hidden="true"]', '.pv-entity__secondary-title', 'h4'], el),
		duration: pick(['.t-14.t-normal.t-black--light span[aria-hidden="true"]', '.pv-entity__date-range span:nth-child(2)', '.date-range'], el),
	}));

	const education = pickAll(['#education ~ .pvs-list__outer-container li.artdeco-list__item', 'section#education-section li', 'ul.education__list > li']).map(el => ({
		school: pick(['.t-bold span[aria-hidden="true"]', '.pv-entity__school-name', 'h3'], el),
		degree: pick(['.t-14.t-normal span[aria-hidden="true"]', '.pv-entity__degree-name .pv-entity__comma-item', 'h4'], el),
	}));

	const skills = pickAll(['#skills ~ .pvs-list__outer-container .t-bold span[aria-hidden="true"]', 'section.pv-skill-categories-section .pv-skill-category-entity__name-text', '.skills__list li']).map(el => (el.innerText || '').trim()).filter(Boolean);

	return { name, headline, location, about, experience, education, skills };
}`

const searchJS = `() => {
	const pick = (sels, root) => {
		for (const sel of sels) {
			const el = root.querySelector(sel);
			if (el && el.innerText && el.innerText.trim()) return el.innerText.trim();
		}
		return '';
	};
	const rows = (() => {
		for (const sel of ['li.reusable-search__result-container', 'ul.search-results__list > li', 'div.entity-result']) {
			const els = document.querySelectorAll(sel);
			if (els.length) return Array.from(els);
		}
		return [];
	})();

	return rows.map(el => {
		const link = el.querySelector('a[href*="/in/"]');
		return {
			name: pick(['span[aria-hidden="true"]', '.entity-result__title-text', '.actor-name'], el),
			headline: pick(['.entity-result__primary-subtitle', '.subline-level-1'], el),
			url: link ? link.href.split('?')[0] : '',
		};
	}).filter(r => r.name || r.url);
}`

const repositoryJS = `() => {
	const pick = (sels, root = document) => {
		for (const sel of sels) {
			const el = root.querySelector(sel);
			if (el && el.innerText && el.innerText.trim()) return el.innerText.trim();
		}
		return '';
	};

	const name = pick(['span.p-name', 'h1.vcard-names .p-name', '.vcard-fullname']);
	const username = pick(['span.p-nickname', '.vcard-username']);
	const bio = pick(['div.p-note .user-profile-bio', '.user-profile-bio div', '.p-note']);

	const rows = (() => {
		for (const sel of ['#user-repositories-list li', 'li[itemprop="owns"]', '.repo-list-item']) {
			const els = document.querySelectorAll(sel);
			if (els.length) return Array.from(els);
		}
		return [];
	})();

	const repositories = rows.map(el => ({
		name: pick(['a[itemprop="name codeRepository"]', 'h3 a', 'a.repo-link'], el),
		description: pick(['p[itemprop="description"]', '.repo-description', 'p.mb-1'], el),
		language: pick(['span[itemprop="programmingLanguage"]', '.repo-language-color + span'], el),
		stars: pick(['a[href$="/stargazers"]', '.octicon-star + span'], el),
	})).filter(r => r.name);

	return { name, username, bio, repositories };
}`

const rawDumpJS = `() => {
	const sections = {};
	let anon = 0;
	document.querySelectorAll('main section, section, article').forEach(el => {
		const key = el.id || el.getAttribute('data-section') || 'section_' + (anon++);
		const text = (el.innerText || '').trim();
		if (text) sections[key] = text;
	});
	return {
		title: document.title || '',
		text: (document.body && document.body.innerText || '').trim(),
		sections,
	};
}`
